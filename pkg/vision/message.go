package vision

import (
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/sonic-howl/frc2025/pkg/estimator"
	"github.com/sonic-howl/frc2025/pkg/geometry"
)

// BotPose is the wire message carrying one botpose array.
type BotPose struct {
	Values []float64 `protobuf:"fixed64,1,rep,packed,name=values,proto3" json:"values,omitempty"`
	// TimestampUs is the publish time in microseconds since epoch.
	TimestampUs int64 `protobuf:"varint,2,opt,name=timestamp_us,json=timestampUs,proto3" json:"timestamp_us,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *BotPose) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BotPose) Reset() { *m = BotPose{} }

// String implements proto.Message.
func (m *BotPose) String() string { return proto.CompactTextString(m) }

// PublishedAt converts TimestampUs.
func (m *BotPose) PublishedAt() time.Time {
	return time.Unix(0, m.TimestampUs*int64(time.Microsecond))
}

// Sample parses the message into a VisionSample.
func (m *BotPose) Sample(stdDevs [3]float64) (estimator.VisionSample, error) {
	return ParseBotPose(m.Values, m.PublishedAt(), stdDevs)
}

// NewBotPose creates the message for a pose captured latency before
// publishedAt.
func NewBotPose(pose geometry.Pose2D, publishedAt time.Time, latency time.Duration) *BotPose {
	return &BotPose{
		Values:      BotPoseValues(pose, latency),
		TimestampUs: publishedAt.UnixNano() / int64(time.Microsecond),
	}
}

// EncodeBotPose serializes the message.
func EncodeBotPose(m *BotPose) ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeBotPose deserializes the message.
func DecodeBotPose(pkt []byte) (*BotPose, error) {
	m := &BotPose{}
	if err := proto.Unmarshal(pkt, m); err != nil {
		return nil, errors.Wrap(err, "decode botpose")
	}
	return m, nil
}
