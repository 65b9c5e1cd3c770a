package mailer

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"classroom-reservation/config"
)

// ErrNotConfigured SMTP 账号未配置，邮件被跳过
var ErrNotConfigured = fmt.Errorf("SMTP 未配置")

// Message 一封 HTML 邮件
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// sendFunc 与 smtp.SendMail 签名一致，测试中替换
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender 基于 net/smtp 的发送器，带发送速率限制
type SMTPSender struct {
	cfg     config.MailConfig
	limiter *rate.Limiter
	send    sendFunc
	logger  *zap.Logger
}

// NewSMTPSender 创建 SMTP 发送器
// RatePerMinute <= 0 时不限速
func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) *SMTPSender {
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
	}
	return &SMTPSender{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		send:    smtp.SendMail,
		logger:  logger,
	}
}

// Configured 账号密码均已配置
func (s *SMTPSender) Configured() bool {
	return s.cfg.Username != "" && s.cfg.Password != ""
}

// Send 发送邮件
// 未配置账号时记录日志并返回 ErrNotConfigured，调用方按跳过处理
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !s.Configured() {
		s.logger.Warn("SMTP 未配置，邮件未发送",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
		return ErrNotConfigured
	}
	if msg.To == "" {
		return fmt.Errorf("收件人为空")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("等待发送配额失败: %w", err)
	}

	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)

	if err := s.send(addr, auth, s.from(), []string{msg.To}, s.build(msg)); err != nil {
		s.logger.Error("发送邮件失败", zap.String("server", addr), zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

func (s *SMTPSender) from() string {
	if s.cfg.From != "" {
		return s.cfg.From
	}
	return s.cfg.Username
}

// build 组装报文，头部顺序固定
func (s *SMTPSender) build(msg Message) []byte {
	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", msg.ToName), msg.To)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", s.cfg.FromName), s.from())
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return []byte(b.String())
}
