package nakama

const (
	// MatchNameBigTwo is the authoritative match handler name registered with Nakama.
	MatchNameBigTwo = "bigtwo_match"

	RpcCreateMatch    = "create_match"
	RpcNameFindMatch  = "find_match"
	RpcNameQueryState = "query_state"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpReady        int64 = 1
	OpStartGame    int64 = 2
	OpPlayCards    int64 = 3
	OpPassTurn     int64 = 4
	OpRequestState int64 = 5

	// Server -> Client events
	OpRoomUpdate int64 = 101
	OpDealCards  int64 = 102 // send privately
	OpGameUpdate int64 = 103
	OpPlayError  int64 = 104 // send privately
	OpState      int64 = 105 // send privately
)

const (
	MatchLabelKey_OpenSeats = "open"
	MatchLabelKey_State     = "state"
)

// Runtime env keys.
const (
	EnvBotsEnabled      = "bigtwo_bots_enabled"
	EnvBotLevel         = "bigtwo_bot_level"
	EnvBotMinDelay      = "bigtwo_bot_min_delay_sec"
	EnvBotMaxDelay      = "bigtwo_bot_max_delay_sec"
	EnvBotAutoFillDelay = "bigtwo_bot_auto_fill_delay_sec"
)
