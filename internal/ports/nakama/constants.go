package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"
	// RpcAnalyze is the Nakama RPC id for double-dummy analysis of a submitted deal.
	RpcAnalyze = "analyze"
	// RpcRejoinToken is the Nakama RPC id to re-issue a rejoin token for an occupied seat.
	RpcRejoinToken = "rejoin_token"

	// MatchNameChicago is the authoritative match handler name registered with Nakama.
	MatchNameChicago = "chicago_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartSession int64 = 1
	OpBidIntent    int64 = 2
	OpPlayIntent   int64 = 3

	// Server -> Client events
	OpSeatUpdate      int64 = 101
	OpStateSnapshot   int64 = 102 // sent privately on join and rejoin
	OpHandDealt       int64 = 103 // sent privately
	OpBidPlaced       int64 = 104
	OpPlayStarted     int64 = 105
	OpCardPlayed      int64 = 106
	OpTrickTaken      int64 = 107
	OpDealScored      int64 = 108
	OpSessionComplete int64 = 109
	OpRejected        int64 = 110 // sent privately to the offending sender
)
