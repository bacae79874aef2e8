package msgsvc

import (
	"log"
	"sync"

	"github.com/nkashama/bweni/core"
)

type consoleService struct {
	disableOutput bool

	mu   sync.Mutex
	sent []core.TextMessage
}

var _ core.MessagingService = (*consoleService)(nil)

func NewConsoleService() *consoleService {
	return &consoleService{}
}

// NewConsoleServiceMock records messages without printing them; SentMessages
// inspects what was delivered.
func NewConsoleServiceMock() *consoleService {
	return &consoleService{disableOutput: true}
}

func (svc *consoleService) SendMessage(msg core.TextMessage) error {
	if !svc.disableOutput {
		log.Printf("To: %s\n%s\n", msg.To, msg.Body)
	}
	svc.mu.Lock()
	svc.sent = append(svc.sent, msg)
	svc.mu.Unlock()
	return nil
}

func (svc *consoleService) SentMessages() []core.TextMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	sent := make([]core.TextMessage, len(svc.sent))
	copy(sent, svc.sent)
	return sent
}
