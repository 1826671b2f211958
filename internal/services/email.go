package services

import (
	"alquigest/internal/config"
	"alquigest/internal/logger"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPortInt(), cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

func (s *EmailService) Send(to []string, subject, body string) error {
	return s.send(to, subject, body, "text/plain")
}

func (s *EmailService) SendHTML(to []string, subject, body string) error {
	return s.send(to, subject, body, "text/html")
}

func (s *EmailService) send(to []string, subject, body, contentType string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody(contentType, body)
	return s.dialer.DialAndSend(m)
}

type EmailJob struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}

var EmailQueue = make(chan EmailJob, 100) // ограниченная очередь писем

// EnqueueEmail ставит письмо в очередь не блокируя запрос. Переполнение
// очереди — потеря письма с записью в лог, не ошибка вызывающему.
func EnqueueEmail(job EmailJob) {
	select {
	case EmailQueue <- job:
	default:
		logger.Log.Error("Очередь писем переполнена, письмо не отправлено", zap.String("subject", job.Subject))
	}
}

// StartEmailWorker запускает воркер, разбирающий очередь писем. Сбой отправки
// только логируется: отправка идёт вне запроса, откатывать нечего.
func StartEmailWorker(emailService *EmailService) {
	go func() {
		for job := range EmailQueue {
			var err error
			if job.IsHTML {
				err = emailService.SendHTML(job.To, job.Subject, job.Body)
			} else {
				err = emailService.Send(job.To, job.Subject, job.Body)
			}
			if err != nil {
				logger.Log.Error("Не удалось отправить письмо", zap.Error(err))
			}
		}
	}()
}
