// Package chatstate modela el estado local de un cliente de chat como un
// record inmutable con transiciones explícitas, para poder probarlo sin UI.
package chatstate

// Message es un turno del transcript local. Pending marca el mensaje
// optimista todavía no confirmado por el servidor.
type Message struct {
	ID      string
	Role    string
	Content string
	Pending bool
}

// State es el record completo; cada transición devuelve una copia nueva.
type State struct {
	Messages       []Message
	ConversationID string
	DrawerOpen     bool
	Busy           bool
	Err            string
}

func New() State {
	return State{Messages: []Message{}}
}

// SendPrompt agrega el turno del usuario de forma optimista con una identidad
// provisional, antes de cualquier confirmación del servidor.
func (s State) SendPrompt(provisionalID, prompt string) State {
	next := s
	next.Messages = append(s.cloneMessages(), Message{
		ID:      provisionalID,
		Role:    "user",
		Content: prompt,
		Pending: true,
	})
	next.Busy = true
	next.Err = ""
	return next
}

// ApplyExchange reconcilia: confirma el mensaje provisional, agrega la
// respuesta y adopta la referencia de conversación que devolvió el servidor.
func (s State) ApplyExchange(provisionalID, assistantID, text, conversationID string) State {
	next := s
	messages := s.cloneMessages()
	for i := range messages {
		if messages[i].ID == provisionalID {
			messages[i].Pending = false
		}
	}
	next.Messages = append(messages, Message{
		ID:      assistantID,
		Role:    "assistant",
		Content: text,
	})
	if conversationID != "" {
		next.ConversationID = conversationID
	}
	next.Busy = false
	return next
}

// FailExchange registra el error y conserva el prompt optimista: hoy no
// existe camino de rollback.
func (s State) FailExchange(message string) State {
	next := s
	next.Messages = s.cloneMessages()
	next.Busy = false
	next.Err = message
	return next
}

// LoadConversation reemplaza el transcript por el historial del servidor.
func (s State) LoadConversation(conversationID string, messages []Message) State {
	next := s
	next.Messages = append([]Message{}, messages...)
	next.ConversationID = conversationID
	next.DrawerOpen = false
	next.Busy = false
	next.Err = ""
	return next
}

// StartNew limpia transcript y referencia para empezar una conversación.
func (s State) StartNew() State {
	next := s
	next.Messages = []Message{}
	next.ConversationID = ""
	next.Err = ""
	return next
}

func (s State) ToggleDrawer() State {
	next := s
	next.Messages = s.cloneMessages()
	next.DrawerOpen = !s.DrawerOpen
	return next
}

func (s State) cloneMessages() []Message {
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}
