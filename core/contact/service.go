package contact

import (
	"net/mail"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fotoescola/core"
)

// Message is what a visitor submits through the contact form. It is emailed, never stored.
type Message struct {
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,min=10,max=13"`
	Subject string `json:"subject" validate:"required,notblank,max=200"`
	Message string `json:"message" validate:"required,notblank,max=5000"`
}

func (m *Message) Validate(validate *validator.Validate) error {
	m.Name = core.CleanString(m.Name)
	m.Email = core.CleanString(m.Email, true /* lower */)
	m.Phone = core.OnlyDigits(m.Phone)
	m.Subject = core.CleanString(m.Subject)
	m.Message = core.CleanString(m.Message)
	return validate.Struct(m)
}

type Service struct {
	mailSvc core.EmailService
	inbox   mail.Address
}

func NewService(mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{mailSvc: mailSvc, inbox: conf.ContactEmail()}
}

// Send forwards msg to the school inbox, replying to the sender, and confirms receipt to the sender.
// msg must be validated.
func (svc *Service) Send(msg Message) {
	sender := mail.Address{Name: msg.Name, Address: msg.Email}
	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{svc.inbox},
			ReplyTo:      &sender,
			Subject:      "Contato: " + msg.Subject,
			TemplateName: "contact",
			TemplateData: msg,
		},
		&core.EmailMessage{
			To:           []mail.Address{sender},
			Subject:      "Recebemos a sua mensagem",
			TemplateName: "contact_confirmation",
			TemplateData: msg,
		},
	)
}
