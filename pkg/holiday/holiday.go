package holiday

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const (
	icsMaxFileSize = 5 * 1024 * 1024 // 5MB
	dateLayout     = "20060102"
)

// Source 节假日数据源
type Source interface {
	// HolidaysInRange 返回 [start, end] 闭区间内的节假日（UTC 零点，升序去重）
	HolidaysInRange(ctx context.Context, start, end time.Time) ([]time.Time, error)
}

// ICSSource 从公共 iCalendar 订阅读取节假日
type ICSSource struct {
	url    string
	client *http.Client
}

// NewICSSource 创建 ICS 数据源，timeout 为单次请求超时
func NewICSSource(rawURL string, timeout time.Duration) *ICSSource {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}
	return &ICSSource{
		url:    u,
		client: &http.Client{Timeout: timeout},
	}
}

// HolidaysInRange 拉取并解析日历
func (s *ICSSource) HolidaysInRange(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("构造节假日请求失败: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取节假日日历失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("获取节假日日历失败: HTTP %d", resp.StatusCode)
	}

	// 限制响应体大小，防止异常响应导致 OOM
	return Parse(io.LimitReader(resp.Body, icsMaxFileSize), start, end)
}

// Parse 解析 ICS 内容，返回落在 [start, end] 内的节假日
// 全天事件的 DTEND 为开区间，跨多天的节日逐日展开
func Parse(r io.Reader, start, end time.Time) ([]time.Time, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	from, to := day(start), day(end)
	seen := make(map[time.Time]struct{})
	var out []time.Time

	for _, evt := range cal.Events() {
		first, err := eventDate(evt, ics.ComponentPropertyDtStart)
		if err != nil {
			continue
		}
		last := first
		if dtEnd, err := eventDate(evt, ics.ComponentPropertyDtEnd); err == nil && dtEnd.After(first) {
			last = dtEnd.AddDate(0, 0, -1)
		}

		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if d.Before(from) || d.After(to) {
				continue
			}
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}

	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out, nil
}

// eventDate 读取日期属性，兼容 VALUE=DATE 与带时间的写法
func eventDate(evt *ics.VEvent, prop ics.ComponentProperty) (time.Time, error) {
	p := evt.GetProperty(prop)
	if p == nil {
		return time.Time{}, fmt.Errorf("缺少属性 %s", prop)
	}
	val := strings.TrimSpace(p.Value)
	if len(val) < len(dateLayout) {
		return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
	}
	t, err := time.Parse(dateLayout, val[:len(dateLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
	}
	return t, nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
