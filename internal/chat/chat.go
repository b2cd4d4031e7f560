// Package chat adapts inbound conversational updates (messages and button
// callbacks) to the fulfillment core and renders its replies.
package chat

// Update is one inbound user action. Exactly one of Text or Callback is set.
type Update struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Text      string `json:"text"`
	Callback  string `json:"callback"`
}

// Replyer is a place to send a reply. Callback-originated updates may edit the
// message that carried the button; message-originated ones always send anew.
type Replyer interface {
	Reply(text string) error
	EditOrReply(text string) error
}

// Collector buffers replies; the webhook transport returns them as the HTTP
// response body.
type Collector struct {
	Replies []string
	Edits   int
}

func (c *Collector) Reply(text string) error {
	c.Replies = append(c.Replies, text)
	return nil
}

func (c *Collector) EditOrReply(text string) error {
	c.Edits++
	return c.Reply(text)
}

// messageReplyer degrades edits to plain replies for message-originated
// updates, which have no bot message to edit.
type messageReplyer struct{ r Replyer }

func (m messageReplyer) Reply(text string) error       { return m.r.Reply(text) }
func (m messageReplyer) EditOrReply(text string) error { return m.r.Reply(text) }

// ForMessage wraps a Replyer so EditOrReply never edits.
func ForMessage(r Replyer) Replyer { return messageReplyer{r: r} }
