package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"chicago/internal/app"
	"chicago/internal/bot"
	"chicago/internal/config"
	"chicago/internal/domain"
	"chicago/internal/sampler"
	"chicago/internal/solver"

	"github.com/heroiclabs/nakama-common/runtime"
)

// generatedSession is the result handed back by the background session
// generator. The match loop is the only goroutine that touches state;
// the generator communicates through this channel alone.
type generatedSession struct {
	id     string
	boards []domain.Board
	err    error
}

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats    [4]string // user IDs indexed by domain.Seat, empty string means seat is empty
	HostSeat int       // seat index of the session host, -1 until a human sits
	Tick     int64

	Presences map[string]runtime.Presence `json:"-"`
	App       *app.Service                `json:"-"`
	Tokens    *app.TokenService           `json:"-"`
	Session   *domain.Session             `json:"-"`

	Standins     [4]bool                    // seat is driven by a stand-in agent
	Bots         map[domain.Seat]*bot.Agent `json:"-"`
	BotsEnabled  bool
	BotMinDelay  int
	BotMaxDelay  int
	BotWaitUntil int64

	TurnDuration  int64 // ticks a seat may idle before a stand-in takes over
	TurnDeadline  int64
	AutoFillDelay int
	SoloSince     int64 // tick when a lone human started waiting, 0 when not waiting

	Cfg     config.GameConfig     `json:"-"`
	Pending chan generatedSession `json:"-"`

	rng      *rand.Rand
	reserved map[string]domain.Seat // seat reservations made during join attempts
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, userID := range ms.Seats {
		if userID == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, userID := range ms.Seats {
		if userID != "" && !isBotUserID(userID) {
			count++
		}
	}
	return count
}

func (ms *MatchState) seatOf(userID string) (domain.Seat, bool) {
	for seat, id := range ms.Seats {
		if id != "" && id == userID {
			return domain.Seat(seat), true
		}
	}
	return 0, false
}

// isBotUserID reports whether the given user id represents a stand-in seat.
func isBotUserID(userID string) bool {
	return strings.HasPrefix(userID, "bot-")
}

func botUserID(seat domain.Seat) string {
	return "bot-" + seat.String()
}

// isHumanSeat reports whether the seat index belongs to a connected human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userID := seats[seatIndex]
	return userID != "" && !isBotUserID(userID)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" && !isBotUserID(userID) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config, using defaults: %v", err)
	}
	cfg := config.GetGameConfig()

	// Environment overrides for deploy-time tuning.
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["chicago_bots_enabled"]; ok {
			cfg.BotsEnabled = val == "true"
		}
		if val, ok := env["chicago_turn_duration_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				cfg.TurnDurationSeconds = i
			}
		}
		if val, ok := env["chicago_token_secret"]; ok {
			cfg.TokenSecret = val
		}
		if val, ok := env["chicago_session_length"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				cfg.SessionLength = i
			}
		}
	}

	state := &MatchState{
		Tick:          time.Now().Unix(),
		HostSeat:      -1,
		Presences:     make(map[string]runtime.Presence),
		App:           app.NewService(),
		Tokens:        app.NewTokenService(cfg.TokenSecret, cfg.TokenIssuer),
		Bots:          make(map[domain.Seat]*bot.Agent),
		BotsEnabled:   cfg.BotsEnabled,
		BotMinDelay:   cfg.BotMinDelaySeconds,
		BotMaxDelay:   cfg.BotMaxDelaySeconds,
		TurnDuration:  int64(cfg.TurnDurationSeconds),
		AutoFillDelay: cfg.BotAutoFillDelaySeconds,
		Cfg:           cfg,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		reserved:      make(map[string]domain.Seat),
	}

	labelBytes, err := json.Marshal(MatchLabel{Open: 4, Phase: "lobby"})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	userID := presence.GetUserId()

	// A rejoin token reclaims an occupied seat in a live session.
	if token := metadata["rejoin_token"]; token != "" {
		claims, err := matchState.Tokens.VerifyRejoinToken(token)
		if err != nil {
			return matchState, false, "invalid rejoin token"
		}
		matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
		if claims.MatchID != matchID || claims.UserID != userID {
			return matchState, false, "rejoin token does not match"
		}
		if matchState.Seats[claims.Seat] != userID {
			return matchState, false, "seat no longer held"
		}
		matchState.reserved[userID] = claims.Seat
		return matchState, true, ""
	}

	// A seat request is honored when that seat is free.
	if name := metadata["seat"]; name != "" {
		seat, err := domain.ParseSeat(name)
		if err != nil {
			return matchState, false, "unknown seat"
		}
		if matchState.Seats[seat] != "" && !(matchState.Session == nil && isBotUserID(matchState.Seats[seat])) {
			return matchState, false, "seat taken"
		}
		matchState.reserved[userID] = seat
		return matchState, true, ""
	}

	if matchState.GetOpenSeatsCount() > 0 {
		return matchState, true, ""
	}
	// Allow joining over a bot seat while still in the lobby.
	if matchState.Session == nil {
		for _, id := range matchState.Seats {
			if isBotUserID(id) {
				return matchState, true, ""
			}
		}
	}
	return matchState, false, "match full"
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		seat, assigned := matchState.assignSeat(userID)
		delete(matchState.reserved, userID)
		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", userID)
			continue
		}
		matchState.Standins[seat] = false
		logger.Debug("MatchJoin: User %s seated at %s.", userID, seat)

		mh.sendSnapshot(ctx, matchState, dispatcher, logger, seat, p)
	}

	// The host is always the first connected human.
	if !isHumanSeat(matchState.Seats[:], matchState.HostSeat) {
		matchState.HostSeat = findFirstHumanSeat(matchState.Seats[:])
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSeatUpdate(matchState, dispatcher, logger)
	return matchState
}

// assignSeat places a user in their reserved or rejoined seat, else the
// first free one, else over a lobby bot.
func (ms *MatchState) assignSeat(userID string) (domain.Seat, bool) {
	if seat, ok := ms.reserved[userID]; ok {
		if ms.Seats[seat] == userID || ms.Seats[seat] == "" || (ms.Session == nil && isBotUserID(ms.Seats[seat])) {
			delete(ms.Bots, seat)
			ms.Seats[seat] = userID
			return seat, true
		}
	}
	if seat, ok := ms.seatOf(userID); ok {
		return seat, true
	}
	for i, id := range ms.Seats {
		if id == "" {
			ms.Seats[i] = userID
			return domain.Seat(i), true
		}
	}
	if ms.Session == nil {
		for i, id := range ms.Seats {
			if isBotUserID(id) {
				delete(ms.Bots, domain.Seat(i))
				ms.Seats[i] = userID
				return domain.Seat(i), true
			}
		}
	}
	return 0, false
}

// MatchLeave is called when one or more players leave the match. Seats
// in a live session are kept and handed to stand-ins so play continues
// and the seat stays reclaimable by rejoin token.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat, ok := matchState.seatOf(userID)
		if !ok {
			continue
		}
		if matchState.Session != nil && !matchState.Session.Complete() {
			matchState.Standins[seat] = true
			logger.Debug("MatchLeave: User %s disconnected, %s now driven by a stand-in.", userID, seat)
		} else {
			matchState.Seats[seat] = ""
			logger.Debug("MatchLeave: User %s left, seat %s freed.", userID, seat)
		}
	}

	// Host follows the first human still connected.
	host := -1
	for i, id := range matchState.Seats {
		if isHumanSeat(matchState.Seats[:], i) {
			if _, connected := matchState.Presences[id]; connected {
				host = i
				break
			}
		}
	}
	matchState.HostSeat = host

	// Terminate when only bots and disconnected seats remain; a seat
	// kept for rejoin does not hold the match open on its own.
	connected := matchState.Seats
	for i, id := range connected {
		if _, ok := matchState.Presences[id]; !ok {
			connected[i] = ""
		}
	}
	if shouldTerminateNoHumans(connected[:]) {
		logger.Info("MatchLeave: Terminating match with no connected humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSeatUpdate(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	// Collect a finished background generation, if any.
	if matchState.Pending != nil {
		select {
		case result := <-matchState.Pending:
			matchState.Pending = nil
			mh.finishStartSession(ctx, matchState, dispatcher, logger, result)
		default:
		}
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartSession:
			mh.handleStartSession(ctx, matchState, dispatcher, logger, msg)
		case OpBidIntent:
			mh.handleBidIntent(ctx, matchState, dispatcher, logger, msg)
		case OpPlayIntent:
			mh.handlePlayIntent(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
			mh.sendRejected(matchState, dispatcher, logger, msg.GetUserId(), msg.GetOpCode(), "unknown op code")
		}
	}

	mh.processTurnTimeout(matchState, logger)
	mh.processBots(ctx, matchState, dispatcher, logger)

	return matchState
}

// processTurnTimeout hands an overdue seat to a stand-in. The session is
// never aborted on idleness.
func (mh *matchHandler) processTurnTimeout(state *MatchState, logger runtime.Logger) {
	if state.Session == nil || state.Session.Complete() || state.TurnDuration <= 0 {
		return
	}
	turnSeat, ok := state.Session.Turn()
	if !ok {
		return
	}
	seat := state.controllerSeat(turnSeat)
	if state.Standins[seat] || isBotUserID(state.Seats[seat]) {
		return
	}
	if state.TurnDeadline == 0 {
		state.TurnDeadline = state.Tick + state.TurnDuration
		return
	}
	if state.Tick >= state.TurnDeadline {
		state.Standins[seat] = true
		logger.Info("processTurnTimeout: %s idle past deadline, stand-in takes over.", seat)
	}
}

// controllerSeat resolves who acts for a seat: dummy's cards are played
// by declarer once the play has started.
func (ms *MatchState) controllerSeat(seat domain.Seat) domain.Seat {
	if ms.Session != nil && ms.Session.Phase == domain.PhasePlaying && seat == ms.Session.Play.Dummy() {
		return ms.Session.Play.Contract.Declarer
	}
	return seat
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// Auto-fill the lobby for a lone human after a grace period.
	if state.Session == nil && state.BotsEnabled {
		if state.GetHumanPlayerCount() == 1 {
			if state.SoloSince == 0 {
				state.SoloSince = state.Tick
			}
			if state.Tick-state.SoloSince >= int64(state.AutoFillDelay) {
				if state.fillWithBots() {
					logger.Info("processBots: Filled open seats with stand-ins for a lone human.")
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastSeatUpdate(state, dispatcher, logger)
				}
				state.SoloSince = 0
			}
		} else {
			state.SoloSince = 0
		}
	}

	if state.Session == nil || state.Session.Complete() {
		return
	}
	turnSeat, ok := state.Session.Turn()
	if !ok {
		return
	}
	seat := state.controllerSeat(turnSeat)
	if !state.Standins[seat] && !isBotUserID(state.Seats[seat]) {
		return
	}

	if state.BotWaitUntil == 0 {
		delay := state.BotMinDelay
		if state.BotMaxDelay > state.BotMinDelay {
			delay += state.rng.Intn(state.BotMaxDelay - state.BotMinDelay + 1)
		}
		state.BotWaitUntil = state.Tick + int64(delay)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent := state.Bots[seat]
	if agent == nil {
		agent = bot.NewAgent(seat, bot.NewRuleBrain(state.rng))
		state.Bots[seat] = agent
	}
	move, err := agent.Act(state.Session, turnSeat)
	if err != nil {
		logger.Error("processBots: Stand-in for %s failed to act: %v", turnSeat, err)
		return
	}

	var events []app.Event
	switch {
	case move.Bid != nil:
		events, err = state.App.PlaceBid(state.Session, *move.Bid)
	case move.Card != nil:
		events, err = state.App.PlayCard(state.Session, turnSeat, *move.Card)
	}
	if err != nil {
		logger.Error("processBots: Stand-in move for %s rejected: %v", turnSeat, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.resetTurnTimer(state)
}

func (ms *MatchState) fillWithBots() bool {
	filled := false
	for i, id := range ms.Seats {
		if id == "" {
			seat := domain.Seat(i)
			ms.Seats[i] = botUserID(seat)
			ms.Bots[seat] = bot.NewAgent(seat, bot.NewRuleBrain(ms.rng))
			filled = true
		}
	}
	return filled
}

func (mh *matchHandler) handleStartSession(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat, seated := state.seatOf(senderID)
	if !seated || int(senderSeat) != state.HostSeat {
		mh.sendRejected(state, dispatcher, logger, senderID, OpStartSession, "only the host can start a session")
		return
	}
	if state.Session != nil && !state.Session.Complete() {
		mh.sendRejected(state, dispatcher, logger, senderID, OpStartSession, "session already running")
		return
	}
	if state.Pending != nil {
		mh.sendRejected(state, dispatcher, logger, senderID, OpStartSession, "session generation in progress")
		return
	}

	if state.GetOpenSeatsCount() > 0 {
		if !state.BotsEnabled {
			mh.sendRejected(state, dispatcher, logger, senderID, OpStartSession, "table is not full")
			return
		}
		state.fillWithBots()
		mh.broadcastSeatUpdate(state, dispatcher, logger)
	}

	// Generation runs a double-dummy solve per candidate deal, far too
	// slow for the match loop. Hand it to a goroutine and poll.
	cfg := state.Cfg
	pending := make(chan generatedSession, 1)
	state.Pending = pending
	go func() {
		gen := sampler.NewGenerator(sampler.Config{
			SessionLength: cfg.SessionLength,
			TargetNet:     cfg.TargetNet,
			Tolerance:     cfg.BalanceTolerance,
			AttemptBudget: cfg.AttemptBudget,
			BatchSize:     cfg.BatchSize,
			Workers:       cfg.SamplerWorkers,
		}, sampler.DDEvaluator{Options: solver.Options{NodeBudget: cfg.SolverNodeBudget}})
		sess, err := gen.Generate(context.Background())
		if err != nil {
			pending <- generatedSession{err: err}
			return
		}
		pending <- generatedSession{id: sess.ID, boards: sess.DomainBoards()}
	}()

	logger.Info("StartSession: Generation started by %s for %d boards.", senderID, cfg.SessionLength)
}

// finishStartSession installs a generated session and deals the first board.
func (mh *matchHandler) finishStartSession(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, result generatedSession) {
	if result.err != nil {
		logger.Error("StartSession: Generation failed: %v", result.err)
		if state.HostSeat >= 0 {
			mh.sendRejected(state, dispatcher, logger, state.Seats[state.HostSeat], OpStartSession, "session generation failed")
		}
		return
	}

	sess, events, err := state.App.StartSession(result.id, result.boards)
	if err != nil {
		logger.Error("StartSession: Failed to start session: %v", err)
		return
	}
	state.Session = sess

	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.resetTurnTimer(state)

	// Fresh private snapshots carry the rejoin tokens for this session.
	for seat := domain.North; seat <= domain.West; seat++ {
		if p, ok := state.Presences[state.Seats[seat]]; ok {
			mh.sendSnapshot(ctx, state, dispatcher, logger, seat, p)
		}
	}
	logger.Info("StartSession: Session %s started with %d boards.", sess.ID, len(result.boards))
}

func (mh *matchHandler) handleBidIntent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat, seated := state.seatOf(senderID)
	if !seated {
		mh.sendRejected(state, dispatcher, logger, senderID, OpBidIntent, "not seated")
		return
	}
	if state.Session == nil {
		mh.sendRejected(state, dispatcher, logger, senderID, OpBidIntent, "no session running")
		return
	}

	var intent BidIntentMsg
	if err := json.Unmarshal(msg.GetData(), &intent); err != nil {
		mh.sendRejected(state, dispatcher, logger, senderID, OpBidIntent, "malformed bid intent")
		return
	}
	bid, err := intent.Bid(senderSeat)
	if err != nil {
		mh.sendRejected(state, dispatcher, logger, senderID, OpBidIntent, err.Error())
		return
	}

	events, err := state.App.PlaceBid(state.Session, bid)
	if err != nil {
		logger.Debug("handleBidIntent: %s bid rejected: %v", senderSeat, err)
		mh.sendRejected(state, dispatcher, logger, senderID, OpBidIntent, err.Error())
		return
	}

	// A valid action from the seat's owner takes control back from any
	// stand-in.
	state.Standins[senderSeat] = false
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.resetTurnTimer(state)
}

func (mh *matchHandler) handlePlayIntent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat, seated := state.seatOf(senderID)
	if !seated {
		mh.sendRejected(state, dispatcher, logger, senderID, OpPlayIntent, "not seated")
		return
	}
	if state.Session == nil {
		mh.sendRejected(state, dispatcher, logger, senderID, OpPlayIntent, "no session running")
		return
	}

	var intent PlayIntentMsg
	if err := json.Unmarshal(msg.GetData(), &intent); err != nil {
		mh.sendRejected(state, dispatcher, logger, senderID, OpPlayIntent, "malformed play intent")
		return
	}
	card, err := domain.ParseCard(intent.Card)
	if err != nil {
		mh.sendRejected(state, dispatcher, logger, senderID, OpPlayIntent, err.Error())
		return
	}

	target := senderSeat
	if intent.Seat != "" {
		target, err = domain.ParseSeat(intent.Seat)
		if err != nil {
			mh.sendRejected(state, dispatcher, logger, senderID, OpPlayIntent, err.Error())
			return
		}
	} else if turnSeat, ok := state.Session.Turn(); ok && state.controllerSeat(turnSeat) == senderSeat {
		// Declarer's play with no explicit seat goes to whichever of
		// their seats is on turn, covering dummy.
		target = turnSeat
	}
	if state.controllerSeat(target) != senderSeat {
		mh.sendRejected(state, dispatcher, logger, senderID, OpPlayIntent, "seat not controlled by sender")
		return
	}

	events, err := state.App.PlayCard(state.Session, target, card)
	if err != nil {
		logger.Debug("handlePlayIntent: %s playing for %s rejected: %v", senderSeat, target, err)
		mh.sendRejected(state, dispatcher, logger, senderID, OpPlayIntent, err.Error())
		return
	}

	state.Standins[senderSeat] = false
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.resetTurnTimer(state)
}

func (mh *matchHandler) resetTurnTimer(state *MatchState) {
	state.TurnDeadline = 0
	state.BotWaitUntil = 0
	if state.Session != nil && !state.Session.Complete() && state.TurnDuration > 0 {
		state.TurnDeadline = state.Tick + state.TurnDuration
	}
}

// dispatchEvents converts app events to wire messages. Targeted events
// go only to connected recipients; if none of the intended seats is
// connected the message is dropped rather than leaked as a broadcast.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		var opCode int64
		switch ev.Kind {
		case app.EventSessionStarted:
			mh.broadcastSeatUpdate(state, dispatcher, logger)
			continue
		case app.EventHandDealt:
			opCode = OpHandDealt
		case app.EventBidPlaced:
			opCode = OpBidPlaced
		case app.EventPlayStarted:
			opCode = OpPlayStarted
		case app.EventCardPlayed:
			opCode = OpCardPlayed
		case app.EventTrickTaken:
			opCode = OpTrickTaken
		case app.EventDealScored:
			opCode = OpDealScored
		case app.EventSessionEnded:
			opCode = OpSessionComplete
		default:
			logger.Warn("dispatchEvents: Unknown event kind: %v", ev.Kind)
			continue
		}

		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			logger.Error("dispatchEvents: Failed to marshal %s: %v", ev.Kind, err)
			continue
		}

		var recipients []runtime.Presence
		if len(ev.Recipients) > 0 {
			for _, seat := range ev.Recipients {
				if p, ok := state.Presences[state.Seats[seat]]; ok {
					recipients = append(recipients, p)
				}
			}
			if len(recipients) == 0 {
				continue
			}
		}
		if err := dispatcher.BroadcastMessage(opCode, payload, recipients, nil, true); err != nil {
			logger.Error("dispatchEvents: Broadcast failed for %s: %v", ev.Kind, err)
		}

		if ev.Kind == app.EventSessionEnded {
			mh.updateLabel(state, dispatcher, logger)
		}
	}
}

// sendRejected sends a targeted rejection without touching state.
func (mh *matchHandler) sendRejected(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, reason string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	payload, err := json.Marshal(RejectedMsg{OpCode: opCode, Reason: reason})
	if err != nil {
		logger.Error("sendRejected: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpRejected, payload, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendRejected: Broadcast failed: %v", err)
	}
}

func (ms *MatchState) seatInfos() [4]SeatInfo {
	var out [4]SeatInfo
	for i, userID := range ms.Seats {
		seat := domain.Seat(i)
		info := SeatInfo{Seat: seat.String(), UserID: userID, Bot: isBotUserID(userID)}
		if p, ok := ms.Presences[userID]; ok {
			info.Connected = true
			info.DisplayName = p.GetUsername()
		} else if agent, ok := ms.Bots[seat]; ok {
			info.DisplayName = agent.Name
		}
		out[i] = info
	}
	return out
}

func (ms *MatchState) phaseName() string {
	if ms.Session == nil || ms.Session.Complete() {
		return "lobby"
	}
	return "playing"
}

func (mh *matchHandler) broadcastSeatUpdate(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	update := SeatUpdateMsg{
		Seats: state.seatInfos(),
		Phase: state.phaseName(),
	}
	if state.HostSeat >= 0 {
		update.HostSeat = domain.Seat(state.HostSeat).String()
	}
	if state.Session != nil {
		update.SessionID = state.Session.ID
		update.Boards = state.Session.Length()
	}
	payload, err := json.Marshal(update)
	if err != nil {
		logger.Error("broadcastSeatUpdate: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpSeatUpdate, payload, nil, nil, true); err != nil {
		logger.Error("broadcastSeatUpdate: Broadcast failed: %v", err)
	}
}

// sendSnapshot sends the full private state projection to one seat.
// Reconnection is snapshot replay, never history replay.
func (mh *matchHandler) sendSnapshot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat domain.Seat, presence runtime.Presence) {
	snap := StateSnapshotMsg{
		Seats: state.seatInfos(),
		Phase: state.phaseName(),
		Seat:  seat.String(),
	}
	if state.HostSeat >= 0 {
		snap.HostSeat = domain.Seat(state.HostSeat).String()
	}

	if sess := state.Session; sess != nil {
		board := sess.CurrentBoard()
		snap.SessionID = sess.ID
		snap.Board = board.Number
		snap.Dealer = board.Rotation.Dealer.String()
		snap.Vulnerability = board.Rotation.Vulnerability.String()
		snap.Records = sess.Records
		snap.NetScore = sess.NetScore
		if turn, ok := sess.Turn(); ok {
			snap.Turn = turn.String()
		}

		switch sess.Phase {
		case domain.PhaseBidding:
			snap.Hand = board.Deal[seat].Strings()
			snap.Auction = sess.Auction.History
		case domain.PhasePlaying:
			play := sess.Play
			snap.Hand = play.Hand(seat).Strings()
			snap.Auction = sess.Auction.History
			contract := play.Contract
			snap.Contract = &contract
			snap.CurrentTrick = play.CurrentTrick()
			snap.TricksNS = play.TricksFor(domain.NorthSouth)
			snap.TricksEW = play.TricksFor(domain.EastWest)
			if len(play.History) > 0 || len(play.CurrentTrick()) > 0 {
				snap.DummySeat = play.Dummy().String()
				snap.DummyHand = play.Hand(play.Dummy()).Strings()
			}
		}

		if !sess.Complete() && !isBotUserID(presence.GetUserId()) {
			matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
			token, err := state.Tokens.GenerateRejoinToken(matchID, presence.GetUserId(), seat, app.DefaultRejoinTTL)
			if err != nil {
				logger.Warn("sendSnapshot: Could not issue rejoin token for %s: %v", seat, err)
			} else {
				snap.RejoinToken = token
			}
		}
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		logger.Error("sendSnapshot: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpStateSnapshot, payload, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendSnapshot: Broadcast failed: %v", err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelBytes, err := json.Marshal(MatchLabel{
		Open:  state.GetOpenSeatsCount(),
		Phase: state.phaseName(),
	})
	if err != nil {
		logger.Error("updateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("updateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

// MatchSignal answers operational queries with the current phase.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	status := map[string]any{"phase": matchState.phaseName(), "open": matchState.GetOpenSeatsCount()}
	if matchState.Session != nil {
		status["session_id"] = matchState.Session.ID
		status["board"] = matchState.Session.CurrentBoard().Number
	}
	b, _ := json.Marshal(status)
	return matchState, string(b)
}
