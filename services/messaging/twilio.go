package msgsvc

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/nkashama/bweni/core"
)

type twilioService struct {
	client        *twilio.RestClient
	from          string
	countryPrefix string
}

var _ core.MessagingService = (*twilioService)(nil)

func NewTwilioService(conf *core.Config) *twilioService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: conf.Twilio.AccountSID,
		Password: conf.Twilio.AuthToken,
	})
	client.SetTimeout(conf.Notif.SendTimeout)
	return &twilioService{
		client:        client,
		from:          "whatsapp:" + conf.Twilio.WhatsAppNumber,
		countryPrefix: conf.Twilio.CountryPrefix,
	}
}

func (svc twilioService) SendMessage(msg core.TextMessage) error {
	params := &openapi.CreateMessageParams{}
	params.SetFrom(svc.from)
	params.SetTo("whatsapp:" + svc.normalize(msg.To))
	params.SetBody(msg.Body)

	if _, err := svc.client.Api.CreateMessage(params); err != nil {
		return errors.Wrap(err, "sending whatsapp message")
	}
	return nil
}

func (svc twilioService) normalize(mobile string) string {
	if strings.HasPrefix(mobile, "+") {
		return mobile
	}
	return svc.countryPrefix + mobile
}
