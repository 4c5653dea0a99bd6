package mail

// Message is a plain notification email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	Body      string
}

// Sender delivers notification emails. Implementations must never block the
// caller on delivery failures; errors are for logging only.
type Sender interface {
	Send(msg Message) error
}
