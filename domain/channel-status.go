package domain

type ChannelStatus int

const (
	ChannelOffline ChannelStatus = iota
	ChannelOnline
	ChannelSubscribed
)

func (s ChannelStatus) String() string {
	switch s {
	case ChannelOnline:
		return "online"
	case ChannelSubscribed:
		return "subscribed"
	default:
		return "offline"
	}
}

type channelKey struct {
	channel    string
	instrument Instrument
}

// ChannelTracker records the last announced status of each (channel, instrument) pair.
// Any transition is accepted since the exchange announces channels independently.
type ChannelTracker struct {
	statuses map[channelKey]ChannelStatus
}

func NewChannelTracker() *ChannelTracker {
	return &ChannelTracker{
		statuses: make(map[channelKey]ChannelStatus),
	}
}

// Set stores the status and returns the previous one (Offline for unknown pairs).
func (t *ChannelTracker) Set(channel string, instrument Instrument, status ChannelStatus) ChannelStatus {
	key := channelKey{channel: channel, instrument: instrument}
	prev := t.statuses[key]

	if status == ChannelOffline {
		delete(t.statuses, key)
	} else {
		t.statuses[key] = status
	}

	return prev
}

func (t *ChannelTracker) Status(channel string, instrument Instrument) ChannelStatus {
	return t.statuses[channelKey{channel: channel, instrument: instrument}]
}

// Reset marks every pair Offline.
func (t *ChannelTracker) Reset() {
	t.statuses = make(map[channelKey]ChannelStatus)
}

func (s ChannelStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
