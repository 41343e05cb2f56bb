package messages

import (
	"fmt"

	messagefb "github.com/cbodonnell/snake/flatbuffers/message"
	snapshotfb "github.com/cbodonnell/snake/flatbuffers/snapshot"
	"github.com/cbodonnell/snake/pkg/game/types"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

// EncodeAll and DecodeAll are safe for concurrent use, so one of each is shared.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(1<<20))
)

func SerializeMessage(m *Message) ([]byte, error) {
	b, err := SerializeMessageFlatbuffer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}

	return encoder.EncodeAll(b, make([]byte, 0, len(b))), nil
}

func DeserializeMessage(data []byte) (*Message, error) {
	b, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress message: %v", err)
	}

	message, err := DeserializeMessageFlatbuffer(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return message, nil
}

func SerializeMessageFlatbuffer(m *Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("message is nil")
	}

	builder := flatbuffers.NewBuilder(len(m.Payload) + 64)

	clientID := builder.CreateString(m.ClientID)
	payload := builder.CreateByteVector(m.Payload)

	messagefb.MessageStart(builder)
	messagefb.MessageAddClientId(builder, clientID)
	messagefb.MessageAddType(builder, byte(m.Type))
	messagefb.MessageAddPayload(builder, payload)
	messageOffset := messagefb.MessageEnd(builder)
	builder.Finish(messageOffset)

	return builder.FinishedBytes(), nil
}

func DeserializeMessageFlatbuffer(b []byte) (m *Message, err error) {
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("buffer too short: %d bytes", len(b))
	}
	// the generated accessors index without bounds checks
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("malformed message buffer: %v", r)
		}
	}()

	messageFlatbuffer := messagefb.GetRootAsMessage(b, 0)
	message := &Message{
		ClientID: string(messageFlatbuffer.ClientId()),
		Type:     MessageType(messageFlatbuffer.Type()),
		Payload:  messageFlatbuffer.PayloadBytes(),
	}

	return message, nil
}

func SerializeGameUpdate(update *ServerGameUpdate) ([]byte, error) {
	if update == nil {
		return nil, fmt.Errorf("game update is nil")
	}

	boundary, err := types.ParseBoundary(update.Boundary)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize game update: %v", err)
	}

	builder := flatbuffers.NewBuilder(64 + 8*len(update.Snake))

	snapshotfb.SnapshotStartSnakeVector(builder, len(update.Snake))
	for i := len(update.Snake) - 1; i >= 0; i-- {
		snapshotfb.CreateCell(builder, int32(update.Snake[i].X), int32(update.Snake[i].Y))
	}
	snakeOffset := builder.EndVector(len(update.Snake))

	snapshotfb.SnapshotStart(builder)
	snapshotfb.SnapshotAddTimestamp(builder, update.Timestamp)
	snapshotfb.SnapshotAddCols(builder, int32(update.Cols))
	snapshotfb.SnapshotAddRows(builder, int32(update.Rows))
	snapshotfb.SnapshotAddSnake(builder, snakeOffset)
	snapshotfb.SnapshotAddFood(builder, snapshotfb.CreateCell(builder, int32(update.Food.X), int32(update.Food.Y)))
	snapshotfb.SnapshotAddLastMove(builder, byte(update.LastMove))
	snapshotfb.SnapshotAddSpeedMs(builder, int32(update.SpeedMs))
	snapshotfb.SnapshotAddDirection(builder, byte(update.Direction))
	snapshotfb.SnapshotAddBoundary(builder, byte(boundary))
	snapshotOffset := snapshotfb.SnapshotEnd(builder)
	builder.Finish(snapshotOffset)

	return builder.FinishedBytes(), nil
}

func DeserializeGameUpdate(b []byte) (update *ServerGameUpdate, err error) {
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("buffer too short: %d bytes", len(b))
	}
	defer func() {
		if r := recover(); r != nil {
			update, err = nil, fmt.Errorf("malformed game update buffer: %v", r)
		}
	}()

	fb := snapshotfb.GetRootAsSnapshot(b, 0)

	snake := make([]types.Cell, fb.SnakeLength())
	cell := &snapshotfb.Cell{}
	for i := range snake {
		if !fb.Snake(cell, i) {
			return nil, fmt.Errorf("failed to get snake segment at index %d", i)
		}
		snake[i] = types.Cell{X: int(cell.X()), Y: int(cell.Y())}
	}

	var food types.Cell
	if f := fb.Food(nil); f != nil {
		food = types.Cell{X: int(f.X()), Y: int(f.Y())}
	}

	return &ServerGameUpdate{
		Timestamp: fb.Timestamp(),
		Cols:      int(fb.Cols()),
		Rows:      int(fb.Rows()),
		Snake:     snake,
		Food:      food,
		LastMove:  types.Direction(fb.LastMove()),
		SpeedMs:   int64(fb.SpeedMs()),
		Direction: types.Direction(fb.Direction()),
		Boundary:  types.Boundary(fb.Boundary()).String(),
	}, nil
}
