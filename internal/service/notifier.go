package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"
	"time"

	"go.uber.org/zap"

	"classroom-reservation/internal/model"
	"classroom-reservation/internal/repository"
	"classroom-reservation/pkg/mailer"
	"classroom-reservation/pkg/metrics"
)

// Notifier 预约结果通知，发送失败只记录日志，不影响业务结果
type Notifier interface {
	NotifyApproval(ctx context.Context, r *model.Reservation)
	NotifyRejection(ctx context.Context, r *model.Reservation, reason string)
	NotifyHolidayConflict(ctx context.Context, r *model.Reservation, dates []time.Time)
}

const (
	notifyApproval  = "approval"
	notifyRejection = "rejection"
	notifyHoliday   = "holiday"
)

// MailNotifier 通过邮件异步通知教师
type MailNotifier struct {
	repo   *repository.Repository
	sender mailer.Sender
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewMailNotifier 创建邮件通知器
func NewMailNotifier(repo *repository.Repository, sender mailer.Sender, logger *zap.Logger) *MailNotifier {
	return &MailNotifier{repo: repo, sender: sender, logger: logger}
}

// Wait 等待已发出的通知完成（优雅关闭时调用）
func (n *MailNotifier) Wait() {
	n.wg.Wait()
}

func (n *MailNotifier) NotifyApproval(ctx context.Context, r *model.Reservation) {
	n.dispatch(ctx, notifyApproval, r, func(u *model.User) mailer.Message {
		return mailer.Message{
			Subject: "教室预约已通过",
			HTMLBody: fmt.Sprintf(`<h2>您的教室预约已通过</h2>
<p>%s 老师您好，您的预约申请已通过审核：</p>
%s`, html.EscapeString(u.Name), reservationDetails(r)),
		}
	})
}

func (n *MailNotifier) NotifyRejection(ctx context.Context, r *model.Reservation, reason string) {
	if reason == "" {
		reason = "未填写"
	}
	n.dispatch(ctx, notifyRejection, r, func(u *model.User) mailer.Message {
		return mailer.Message{
			Subject: "教室预约未通过",
			HTMLBody: fmt.Sprintf(`<h2>您的教室预约未通过</h2>
<p>%s 老师您好，您的预约申请未通过审核：</p>
%s
<p><strong>原因：</strong>%s</p>`, html.EscapeString(u.Name), reservationDetails(r), html.EscapeString(reason)),
		}
	})
}

func (n *MailNotifier) NotifyHolidayConflict(ctx context.Context, r *model.Reservation, dates []time.Time) {
	if len(dates) == 0 {
		return
	}
	n.dispatch(ctx, notifyHoliday, r, func(u *model.User) mailer.Message {
		return mailer.Message{
			Subject: "教室预约与法定节假日重合",
			HTMLBody: fmt.Sprintf(`<h2>预约与法定节假日重合</h2>
<p>%s 老师您好，您的预约有以下日期恰逢法定节假日：</p>
%s
<p><strong>节假日：</strong>%s</p>
<p>请确认是否需要调整。</p>`, html.EscapeString(u.Name), reservationDetails(r), joinDates(dates)),
		}
	})
}

// dispatch 脱离请求生命周期异步发送
func (n *MailNotifier) dispatch(ctx context.Context, kind string, r *model.Reservation, build func(*model.User) mailer.Message) {
	snapshot := *r
	ctx = context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(ctx, kind, &snapshot, build)
	}()
}

func (n *MailNotifier) deliver(ctx context.Context, kind string, r *model.Reservation, build func(*model.User) mailer.Message) {
	log := n.logger.With(zap.String("kind", kind), zap.String("reservation_id", r.ReservationID))

	user := r.Instructor
	if user == nil {
		u, err := n.repo.User.GetByID(ctx, r.InstructorID)
		if err != nil {
			metrics.NotificationsSent.WithLabelValues(kind, "failed").Inc()
			log.Error("查询通知对象失败", zap.Error(err))
			return
		}
		user = u
	}

	msg := build(user)
	msg.To, msg.ToName = user.Email, user.Name

	err := n.sender.Send(ctx, msg)
	switch {
	case errors.Is(err, mailer.ErrNotConfigured):
		metrics.NotificationsSent.WithLabelValues(kind, "skipped").Inc()
	case err != nil:
		metrics.NotificationsSent.WithLabelValues(kind, "failed").Inc()
		log.Error("发送通知邮件失败", zap.Error(&ExternalServiceError{Service: "mail", Err: err}))
	default:
		metrics.NotificationsSent.WithLabelValues(kind, "sent").Inc()
		log.Info("通知邮件已发送", zap.String("to", user.Email))
	}
}

func reservationDetails(r *model.Reservation) string {
	classroom := r.ClassroomID
	if r.Classroom != nil {
		classroom = r.Classroom.Name
	}
	return fmt.Sprintf(`<ul>
<li><strong>教室：</strong>%s</li>
<li><strong>星期：</strong>%s</li>
<li><strong>时间：</strong>%s - %s</li>
<li><strong>学期：</strong>%s ~ %s</li>
</ul>`,
		html.EscapeString(classroom),
		weekdayName(r.DayOfWeek),
		r.StartTime, r.EndTime,
		r.TermStart.Format("2006-01-02"), r.TermEnd.Format("2006-01-02"),
	)
}
