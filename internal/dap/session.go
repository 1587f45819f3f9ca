package dap

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/go-dap"
	"github.com/google/uuid"

	"github.com/varscope/varscope/pkg/types"
)

// Observer receives protocol responses as they arrive on the wire,
// independently of which request produced them. The inspection core
// implements this to passively rebuild its cached state.
type Observer interface {
	OnStackTrace(resp *dap.StackTraceResponse)
	OnVariables(resp *dap.VariablesResponse)
}

// Session is one attached debug session
type Session struct {
	ID        string
	Address   string
	CreatedAt time.Time

	transport *Transport

	// Response handling
	pendingRequests map[int]chan dap.Message
	mu              sync.Mutex

	status   types.SessionStatus
	statusMu sync.RWMutex

	observer   Observer
	observerMu sync.RWMutex

	// Serializes evaluate requests: the debuggee executes one evaluation
	// at a time per paused frame, so a second in-flight evaluation has no
	// ordering guarantee from the protocol.
	evalMu sync.Mutex

	requestTimeout time.Duration

	// Initialization synchronization
	initialized     chan struct{}
	initializedOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a session over the given transport and starts its
// read loop
func NewSession(address string, transport *Transport, requestTimeout time.Duration) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:              uuid.New().String(),
		Address:         address,
		CreatedAt:       time.Now(),
		transport:       transport,
		pendingRequests: make(map[int]chan dap.Message),
		status:          types.SessionStatusConnecting,
		requestTimeout:  requestTimeout,
		initialized:     make(chan struct{}),
		ctx:             ctx,
		cancel:          cancel,
	}

	s.wg.Add(1)
	go s.readLoop()

	return s
}

// SetObserver installs the observer that is fed stackTrace and variables
// responses
func (s *Session) SetObserver(o Observer) {
	s.observerMu.Lock()
	s.observer = o
	s.observerMu.Unlock()
}

// Status returns the current session status
func (s *Session) Status() types.SessionStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Session) setStatus(status types.SessionStatus) {
	s.statusMu.Lock()
	s.status = status
	s.statusMu.Unlock()
}

// Info returns session info for listing
func (s *Session) Info() types.SessionInfo {
	return types.SessionInfo{
		SessionID: s.ID,
		Address:   s.Address,
		Status:    s.Status(),
	}
}

// readLoop continuously reads messages from the transport
func (s *Session) readLoop() {
	defer s.wg.Done()

	consecutiveErrors := 0
	const maxConsecutiveErrors = 5

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		msg, err := s.transport.Receive()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				consecutiveErrors++
				log.Printf("DAP transport error (attempt %d/%d): %v", consecutiveErrors, maxConsecutiveErrors, err)
				if consecutiveErrors >= maxConsecutiveErrors {
					log.Printf("DAP transport: too many consecutive errors, stopping read loop")
					s.setStatus(types.SessionStatusTerminated)
					return
				}
				continue
			}
		}

		consecutiveErrors = 0
		s.handleMessage(msg)
	}
}

// handleMessage routes incoming messages. Stack-trace and variables
// responses are forwarded to the observer before the pending request is
// resolved, so the cached state is current by the time the requester
// resumes.
func (s *Session) handleMessage(msg dap.Message) {
	var requestSeq int
	var isResponse bool

	switch m := msg.(type) {
	case *dap.InitializeResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.AttachResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ConfigurationDoneResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.DisconnectResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ThreadsResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.StackTraceResponse:
		s.notifyStackTrace(m)
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ScopesResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.VariablesResponse:
		s.notifyVariables(m)
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.EvaluateResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.ErrorResponse:
		requestSeq, isResponse = m.RequestSeq, true
	case *dap.InitializedEvent:
		s.initializedOnce.Do(func() {
			close(s.initialized)
		})
		return
	case *dap.StoppedEvent:
		// The debuggee paused: refresh the inspection state in the
		// background. The resulting stackTrace/variables responses reach
		// the observer through the tap above.
		go s.refreshOnStop(m.Body.ThreadId)
		return
	case *dap.TerminatedEvent, *dap.ExitedEvent:
		s.setStatus(types.SessionStatusTerminated)
		return
	}

	if isResponse {
		s.mu.Lock()
		if ch, ok := s.pendingRequests[requestSeq]; ok {
			ch <- msg
			delete(s.pendingRequests, requestSeq)
		}
		s.mu.Unlock()
		return
	}
}

func (s *Session) notifyStackTrace(resp *dap.StackTraceResponse) {
	s.observerMu.RLock()
	o := s.observer
	s.observerMu.RUnlock()
	if o != nil {
		o.OnStackTrace(resp)
	}
}

func (s *Session) notifyVariables(resp *dap.VariablesResponse) {
	s.observerMu.RLock()
	o := s.observer
	s.observerMu.RUnlock()
	if o != nil {
		o.OnVariables(resp)
	}
}

// refreshOnStop walks threads -> stackTrace -> scopes -> variables for
// the stopped thread so the observer sees a fresh frame context and a
// fresh snapshot after every pause.
func (s *Session) refreshOnStop(threadID int) {
	if threadID == 0 {
		threads, err := s.Threads()
		if err != nil || len(threads) == 0 {
			log.Printf("stop refresh: no threads available: %v", err)
			return
		}
		threadID = threads[0].Id
	}

	frames, err := s.StackTrace(threadID, 0, 20)
	if err != nil {
		log.Printf("stop refresh: stackTrace failed: %v", err)
		return
	}
	if len(frames) == 0 {
		return
	}

	scopes, err := s.Scopes(frames[0].Id)
	if err != nil {
		log.Printf("stop refresh: scopes failed: %v", err)
		return
	}

	for _, scope := range scopes {
		if scope.Expensive {
			continue
		}
		if _, err := s.Variables(scope.VariablesReference); err != nil {
			log.Printf("stop refresh: variables failed for scope %s: %v", scope.Name, err)
		}
		// The innermost (first) scope is the one the snapshot tracks.
		break
	}
}

// sendRequest sends a request and waits for the response
func (s *Session) sendRequest(ctx context.Context, req dap.RequestMessage, timeout time.Duration) (dap.Message, error) {
	seq := s.transport.NextSeq()

	switch r := req.(type) {
	case *dap.InitializeRequest:
		r.Seq = seq
	case *dap.AttachRequest:
		r.Seq = seq
	case *dap.ConfigurationDoneRequest:
		r.Seq = seq
	case *dap.DisconnectRequest:
		r.Seq = seq
	case *dap.ThreadsRequest:
		r.Seq = seq
	case *dap.StackTraceRequest:
		r.Seq = seq
	case *dap.ScopesRequest:
		r.Seq = seq
	case *dap.VariablesRequest:
		r.Seq = seq
	case *dap.EvaluateRequest:
		r.Seq = seq
	}

	respCh := make(chan dap.Message, 1)
	s.mu.Lock()
	s.pendingRequests[seq] = respCh
	s.mu.Unlock()

	if err := s.transport.Send(req); err != nil {
		s.mu.Lock()
		delete(s.pendingRequests, seq)
		s.mu.Unlock()
		return nil, err
	}

	select {
	case resp := <-respCh:
		return resp, nil
	case <-time.After(timeout):
		s.mu.Lock()
		delete(s.pendingRequests, seq)
		s.mu.Unlock()
		return nil, fmt.Errorf("request timeout")
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pendingRequests, seq)
		s.mu.Unlock()
		return nil, ctx.Err()
	case <-s.ctx.Done():
		s.mu.Lock()
		delete(s.pendingRequests, seq)
		s.mu.Unlock()
		return nil, s.ctx.Err()
	}
}

// Initialize sends the initialize request
func (s *Session) Initialize(clientID, clientName string) (*dap.InitializeResponse, error) {
	req := &dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "initialize",
		},
		Arguments: dap.InitializeRequestArguments{
			ClientID:               clientID,
			ClientName:             clientName,
			AdapterID:              "varscope",
			Locale:                 "en-US",
			LinesStartAt1:          true,
			ColumnsStartAt1:        true,
			PathFormat:             "path",
			SupportsVariableType:   true,
			SupportsVariablePaging: true,
		},
	}

	resp, err := s.sendRequest(s.ctx, req, s.requestTimeout)
	if err != nil {
		return nil, err
	}

	initResp, ok := resp.(*dap.InitializeResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !initResp.Success {
		return nil, fmt.Errorf("initialize failed: %s", initResp.Message)
	}

	return initResp, nil
}

// Attach runs the attach handshake: initialize, attach, wait for the
// initialized event, then configurationDone. The attach response may not
// arrive until after configurationDone is sent, so attach is issued
// asynchronously.
func (s *Session) Attach(attachArgs map[string]interface{}) error {
	if _, err := s.Initialize("varscope", "Varscope Inspector"); err != nil {
		return err
	}

	attachCh, err := s.attachAsync(attachArgs)
	if err != nil {
		return err
	}

	if err := s.waitInitialized(s.requestTimeout); err != nil {
		return err
	}

	if err := s.configurationDone(); err != nil {
		return err
	}

	select {
	case resp := <-attachCh:
		attachResp, ok := resp.(*dap.AttachResponse)
		if !ok {
			return fmt.Errorf("unexpected response type: %T", resp)
		}
		if !attachResp.Success {
			return fmt.Errorf("attach failed: %s", attachResp.Message)
		}
	case <-time.After(s.requestTimeout):
		return fmt.Errorf("attach response timeout")
	case <-s.ctx.Done():
		return s.ctx.Err()
	}

	s.setStatus(types.SessionStatusAttached)
	return nil
}

func (s *Session) attachAsync(args map[string]interface{}) (chan dap.Message, error) {
	argsJSON, err := marshalArgs(args)
	if err != nil {
		return nil, err
	}

	seq := s.transport.NextSeq()
	req := &dap.AttachRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request", Seq: seq},
			Command:         "attach",
		},
		Arguments: argsJSON,
	}

	respCh := make(chan dap.Message, 1)
	s.mu.Lock()
	s.pendingRequests[seq] = respCh
	s.mu.Unlock()

	if err := s.transport.Send(req); err != nil {
		s.mu.Lock()
		delete(s.pendingRequests, seq)
		s.mu.Unlock()
		return nil, err
	}

	return respCh, nil
}

func (s *Session) waitInitialized(timeout time.Duration) error {
	select {
	case <-s.initialized:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for initialized event")
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *Session) configurationDone() error {
	req := &dap.ConfigurationDoneRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "configurationDone",
		},
	}

	resp, err := s.sendRequest(s.ctx, req, s.requestTimeout)
	if err != nil {
		return err
	}

	configResp, ok := resp.(*dap.ConfigurationDoneResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !configResp.Success {
		return fmt.Errorf("configurationDone failed: %s", configResp.Message)
	}

	return nil
}

// Disconnect ends the debug session
func (s *Session) Disconnect() error {
	req := &dap.DisconnectRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "disconnect",
		},
		Arguments: &dap.DisconnectArguments{},
	}

	resp, err := s.sendRequest(s.ctx, req, s.requestTimeout)
	if err != nil {
		return err
	}

	disconnectResp, ok := resp.(*dap.DisconnectResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	if !disconnectResp.Success {
		return fmt.Errorf("disconnect failed: %s", disconnectResp.Message)
	}

	s.setStatus(types.SessionStatusTerminated)
	return nil
}

// Threads gets all threads
func (s *Session) Threads() ([]dap.Thread, error) {
	req := &dap.ThreadsRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "threads",
		},
	}

	resp, err := s.sendRequest(s.ctx, req, s.requestTimeout)
	if err != nil {
		return nil, err
	}

	threadsResp, ok := resp.(*dap.ThreadsResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !threadsResp.Success {
		return nil, fmt.Errorf("threads request failed: %s", threadsResp.Message)
	}

	return threadsResp.Body.Threads, nil
}

// StackTrace gets the stack trace for a thread
func (s *Session) StackTrace(threadID, startFrame, levels int) ([]dap.StackFrame, error) {
	req := &dap.StackTraceRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "stackTrace",
		},
		Arguments: dap.StackTraceArguments{
			ThreadId:   threadID,
			StartFrame: startFrame,
			Levels:     levels,
		},
	}

	resp, err := s.sendRequest(s.ctx, req, s.requestTimeout)
	if err != nil {
		return nil, err
	}

	stackResp, ok := resp.(*dap.StackTraceResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !stackResp.Success {
		return nil, fmt.Errorf("stackTrace request failed: %s", stackResp.Message)
	}

	return stackResp.Body.StackFrames, nil
}

// Scopes gets the scopes for a stack frame
func (s *Session) Scopes(frameID int) ([]dap.Scope, error) {
	req := &dap.ScopesRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "scopes",
		},
		Arguments: dap.ScopesArguments{
			FrameId: frameID,
		},
	}

	resp, err := s.sendRequest(s.ctx, req, s.requestTimeout)
	if err != nil {
		return nil, err
	}

	scopesResp, ok := resp.(*dap.ScopesResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !scopesResp.Success {
		return nil, fmt.Errorf("scopes request failed: %s", scopesResp.Message)
	}

	return scopesResp.Body.Scopes, nil
}

// Variables gets variables for a reference
func (s *Session) Variables(variablesRef int) ([]dap.Variable, error) {
	req := &dap.VariablesRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "variables",
		},
		Arguments: dap.VariablesArguments{
			VariablesReference: variablesRef,
		},
	}

	resp, err := s.sendRequest(s.ctx, req, s.requestTimeout)
	if err != nil {
		return nil, err
	}

	varsResp, ok := resp.(*dap.VariablesResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", resp)
	}

	if !varsResp.Success {
		return nil, fmt.Errorf("variables request failed: %s", varsResp.Message)
	}

	return varsResp.Body.Variables, nil
}

// Evaluate evaluates an expression in the debuggee and returns the
// rendered result. Calls are serialized: only one evaluation is ever in
// flight per session, and each call blocks until the debuggee responds.
func (s *Session) Evaluate(ctx context.Context, expression string, frameID int) (string, error) {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	req := &dap.EvaluateRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Type: "request"},
			Command:         "evaluate",
		},
		Arguments: dap.EvaluateArguments{
			Expression: expression,
			FrameId:    frameID,
			Context:    "repl",
		},
	}

	resp, err := s.sendRequest(ctx, req, s.requestTimeout)
	if err != nil {
		return "", err
	}

	evalResp, ok := resp.(*dap.EvaluateResponse)
	if !ok {
		return "", fmt.Errorf("unexpected response type: %T", resp)
	}

	if !evalResp.Success {
		return "", fmt.Errorf("evaluate failed: %s", evalResp.Message)
	}

	return evalResp.Body.Result, nil
}

// Close shuts down the session
func (s *Session) Close() error {
	s.cancel()
	err := s.transport.Close()
	s.wg.Wait()
	s.setStatus(types.SessionStatusTerminated)
	return err
}
