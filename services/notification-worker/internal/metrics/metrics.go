package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EmailsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_emails_sent_total",
		Help: "Emails handed to the SMTP relay",
	}, []string{"type"})
	EmailFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_email_failures_total",
		Help: "Emails that failed to send",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(EmailsSentTotal, EmailFailuresTotal)
}
