package model

// ConnectionStatus is the observable state of the notification socket.
type ConnectionStatus string

const (
	StatusIdle         ConnectionStatus = "idle"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusError        ConnectionStatus = "error"
)

// String implements fmt.Stringer.
func (s ConnectionStatus) String() string {
	if s == "" {
		return string(StatusIdle)
	}
	return string(s)
}

// Session is the identity and credential the pipeline runs under.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

// Authenticated reports whether both a token and a user id are present.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.UserID != ""
}
