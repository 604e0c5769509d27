package nakama

import (
	"fmt"

	"github.com/goccy/go-json"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"bigtwo/internal/app"
	"bigtwo/internal/domain"
)

var labelMarshal = protojson.MarshalOptions{EmitUnpopulated: true}

// toStruct converts any JSON-encodable value into a google.protobuf.Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	return s, nil
}

// encodePayload produces the binary wire form of a server event.
func encodePayload(v any) ([]byte, error) {
	s, err := toStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// decodeRequest reads a client payload. Binary Struct is expected; JSON text
// is accepted as well. An empty payload is an empty request.
func decodeRequest(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(data) == 0 {
		return s, nil
	}
	if err := proto.Unmarshal(data, s); err == nil {
		return s, nil
	}
	s.Reset()
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return s, nil
}

// cardsFromRequest reads the "cards" list of a play request.
func cardsFromRequest(req *structpb.Struct) ([]domain.Card, error) {
	field, ok := req.GetFields()["cards"]
	if !ok {
		return nil, fmt.Errorf("missing cards")
	}
	raw, err := protojson.Marshal(field)
	if err != nil {
		return nil, err
	}
	var cards []domain.Card
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}
	return cards, nil
}

// buildLabel renders the match label used by find_match queries.
func buildLabel(summary app.Summary) (string, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		MatchLabelKey_OpenSeats: summary.OpenSeats,
		MatchLabelKey_State:     string(summary.Phase),
	})
	if err != nil {
		return "", err
	}
	b, err := labelMarshal.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func opCodeFor(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventRoomUpdate:
		return OpRoomUpdate, true
	case app.EventDealCards:
		return OpDealCards, true
	case app.EventGameUpdate:
		return OpGameUpdate, true
	case app.EventPlayError:
		return OpPlayError, true
	case app.EventState:
		return OpState, true
	default:
		return 0, false
	}
}
