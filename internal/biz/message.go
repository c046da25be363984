package biz

import (
	"fmt"
	"strings"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/conf"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/constants"
)

// fallback body used when a send goes out without resolved content
const fallbackReflection = "Today's reflection is waiting for you on the web."

// MessageComposer builds the outbound email/SMS bodies and the capability links
// embedded in them. Pure string assembly, shared by signup and dispatch.
type MessageComposer struct {
	baseURL string
}

func NewMessageComposer(c *conf.Bootstrap) *MessageComposer {
	baseURL := ""
	if c != nil && c.Delivery != nil {
		baseURL = strings.TrimRight(c.Delivery.BaseURL, "/")
	}
	return &MessageComposer{baseURL: baseURL}
}

// ReadLink 阅读链接 (progressive paths carry the day number)
func (m *MessageComposer) ReadLink(secureToken string, day int) string {
	return fmt.Sprintf("%s/todays-path?token=%s&day=%d", m.baseURL, secureToken, day)
}

// UnsubscribeLink 退订链接
func (m *MessageComposer) UnsubscribeLink(unsubscribeToken string) string {
	return fmt.Sprintf("%s/unsubscribe?token=%s", m.baseURL, unsubscribeToken)
}

// ComposeEmail builds the daily email for one subscription. A nil content still
// renders: the subscriber gets the links and a fallback line instead of silence.
func (m *MessageComposer) ComposeEmail(sub *DispatchSubscription, content *PathContent) (subject, html string) {
	day := deliveryDay(sub)

	if sub.ContentType == constants.ContentTypeDaily {
		subject = fmt.Sprintf("%s — Today's Reflection", sub.PathName)
	} else {
		subject = fmt.Sprintf("%s — Day %d", sub.PathName, day)
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(fmt.Sprintf("<h2>%s</h2>", sub.PathName))
	if content != nil {
		if content.Snippet != "" {
			b.WriteString(fmt.Sprintf("<blockquote>%s</blockquote>", content.Snippet))
		}
		if content.MeaningPb != "" {
			b.WriteString(fmt.Sprintf("<p>%s</p>", content.MeaningPb))
		}
		if content.MeaningEn != "" {
			b.WriteString(fmt.Sprintf("<p>%s</p>", content.MeaningEn))
		}
		if content.Reflection != "" {
			b.WriteString(fmt.Sprintf("<p><em>%s</em></p>", content.Reflection))
		}
	} else {
		b.WriteString(fmt.Sprintf("<p>%s</p>", fallbackReflection))
	}
	b.WriteString(fmt.Sprintf(`<p><a href="%s">Read on the web</a></p>`, m.ReadLink(sub.SecureToken, day)))
	b.WriteString(fmt.Sprintf(`<p style="font-size:small"><a href="%s">Unsubscribe</a></p>`, m.UnsubscribeLink(sub.UnsubscribeToken)))
	b.WriteString("</body></html>")

	return subject, b.String()
}

// ComposeSMS builds the short text variant carrying the same links.
func (m *MessageComposer) ComposeSMS(sub *DispatchSubscription, content *PathContent) string {
	day := deliveryDay(sub)

	var b strings.Builder
	if sub.ContentType == constants.ContentTypeDaily {
		b.WriteString(fmt.Sprintf("%s — today's reflection: ", sub.PathName))
	} else {
		b.WriteString(fmt.Sprintf("%s day %d: ", sub.PathName, day))
	}
	b.WriteString(m.ReadLink(sub.SecureToken, day))
	b.WriteString(" Unsubscribe: ")
	b.WriteString(m.UnsubscribeLink(sub.UnsubscribeToken))
	return b.String()
}

// WelcomeEmail 注册欢迎邮件
func (m *MessageComposer) WelcomeEmail() (subject, html string) {
	return "Thank you for subscribing 🙏", "<p>Your daily Gurbani will start tomorrow.</p>"
}

// WelcomeSMS 注册欢迎短信
func (m *MessageComposer) WelcomeSMS() string {
	return "Thank you for subscribing to Gurbani Vyakhya!"
}

func deliveryDay(sub *DispatchSubscription) int {
	if sub.CurrentDay > 0 {
		return sub.CurrentDay
	}
	return 1
}
