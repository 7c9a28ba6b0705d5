package domain

// MetricRow is one location's current readings from ml_data.
type MetricRow struct {
	LocationID      string  `json:"location_id"`
	DumpingQuantity float64 `json:"dumping_quantity"`
	CycloneCategory int     `json:"saffir_simpson_category"`
	SeaLevelRise    float64 `json:"sea_level_rise"`
	BloomRiskScore  float64 `json:"bloom_risk_score"`
	RiskScore       float64 `json:"risk_score"`
}

// Group identifies the rule group that produced an alert.
type Group string

const (
	GroupDumping  Group = "dumping"
	GroupBloom    Group = "bloom"
	GroupCyclone  Group = "cyclone"
	GroupSeaLevel Group = "sea_level"
)

// Tier is the severity band within a group.
type Tier string

const (
	TierLow      Tier = "low"
	TierStress   Tier = "stress"
	TierModerate Tier = "moderate"
	TierHigh     Tier = "high"
	TierSevere   Tier = "severe"
)

// AlertEvent is a triggered advisory for one location. Group and Tier are
// labels for logs and metrics; LocationID and Message are what gets sent.
type AlertEvent struct {
	LocationID string `json:"location_id"`
	Group      Group  `json:"group"`
	Tier       Tier   `json:"tier"`
	Message    string `json:"message"`
}

// Channel is an outbound messaging channel.
type Channel string

const (
	ChannelChat Channel = "whatsapp"
	ChannelSMS  Channel = "sms"
)

// Channels lists every channel a recipient is messaged on, in send order.
var Channels = []Channel{ChannelChat, ChannelSMS}

// DeliveryResult is the outcome of one send attempt on one channel.
type DeliveryResult struct {
	Channel   Channel
	Phone     string
	MessageID string // provider id, set on success
	Err       error
}

// Succeeded reports whether the provider accepted the message.
func (r DeliveryResult) Succeeded() bool { return r.Err == nil }

// Outcome returns "success" or "failure" for metric labels.
func (r DeliveryResult) Outcome() string {
	if r.Succeeded() {
		return "success"
	}
	return "failure"
}
