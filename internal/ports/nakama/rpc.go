package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"chicago/internal/app"
	"chicago/internal/config"
	"chicago/internal/domain"
	"chicago/internal/solver"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	errCodeInvalidArgument = 3
	errCodeInternal        = 13
	errCodeUnauthenticated = 16
)

// RegisterRPCs wires the module's RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcAnalyze, rpcAnalyze); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcRejoinToken, rpcRejoinToken)
}

// rpcQuickMatch finds a lobby with an open seat or creates a fresh match.
func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("user id not found in context", errCodeUnauthenticated)
	}

	query := "+label.open:>=1 +label.phase:lobby"
	minSize := 0
	maxSize := 4
	matches, err := nk.MatchList(ctx, 1, true, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: Failed to list matches: %v", userID, err)
		return "", runtime.NewError("failed to list matches", errCodeInternal)
	}

	resp := QuickMatchResponse{}
	if len(matches) > 0 {
		resp.MatchID = matches[0].GetMatchId()
		logger.Info("rpcQuickMatch [User:%s]: Found existing match %s", userID, resp.MatchID)
	} else {
		matchID, err := nk.MatchCreate(ctx, MatchNameChicago, nil)
		if err != nil {
			logger.Error("rpcQuickMatch [User:%s]: Failed to create match: %v", userID, err)
			return "", runtime.NewError("failed to create match", errCodeInternal)
		}
		resp.MatchID = matchID
		resp.IsNew = true
		logger.Info("rpcQuickMatch [User:%s]: Created new match %s", userID, matchID)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("failed to marshal response", errCodeInternal)
	}
	return string(out), nil
}

// rpcAnalyze runs a double-dummy solve on a submitted deal and returns
// the full trick table, one entry per declarer seat and strain.
func rpcAnalyze(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req AnalyzeRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("malformed analyze request", errCodeInvalidArgument)
	}
	deal, err := domain.ImportDeal(req.Hands)
	if err != nil {
		return "", runtime.NewError(err.Error(), errCodeInvalidArgument)
	}

	cfg := config.GetGameConfig()
	table, err := solver.SolveWithOptions(ctx, deal, solver.Options{NodeBudget: cfg.SolverNodeBudget})
	if err != nil {
		logger.Error("rpcAnalyze: Solve failed: %v", err)
		return "", runtime.NewError("analysis did not complete", errCodeInternal)
	}

	resp := AnalyzeResponse{Tricks: make(map[string]map[string]int, 4)}
	for seat := domain.North; seat <= domain.West; seat++ {
		row := make(map[string]int, 5)
		for strain := domain.StrainClubs; strain <= domain.NoTrump; strain++ {
			row[strain.String()] = table.Tricks(seat, strain)
		}
		resp.Tricks[seat.String()] = row
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("failed to marshal response", errCodeInternal)
	}
	return string(out), nil
}

// rpcRejoinToken re-issues a rejoin token for a seat the caller holds.
// The match handler checks seat ownership at the door, so signing here
// needs no match lookup.
func rpcRejoinToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("user id not found in context", errCodeUnauthenticated)
	}

	var req RejoinTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("malformed rejoin token request", errCodeInvalidArgument)
	}
	if req.MatchID == "" {
		return "", runtime.NewError("match_id is required", errCodeInvalidArgument)
	}
	seat, err := domain.ParseSeat(req.Seat)
	if err != nil {
		return "", runtime.NewError(err.Error(), errCodeInvalidArgument)
	}

	cfg := config.GetGameConfig()
	tokens := app.NewTokenService(cfg.TokenSecret, cfg.TokenIssuer)
	token, err := tokens.GenerateRejoinToken(req.MatchID, userID, seat, app.DefaultRejoinTTL)
	if err != nil {
		logger.Error("rpcRejoinToken [User:%s]: Signing failed: %v", userID, err)
		return "", runtime.NewError("failed to issue token", errCodeInternal)
	}

	out, err := json.Marshal(RejoinTokenResponse{Token: token})
	if err != nil {
		return "", runtime.NewError("failed to marshal response", errCodeInternal)
	}
	return string(out), nil
}
