package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoReservations = errors.New("该学期暂无已通过的预约")
	ErrExportGenerateFail   = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportTerm 导出学期内全部已通过预约，按星期、开始时间、教室排序
	ExportTerm(ctx context.Context, termID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportTerm 导出学期课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：学期名称与日期区间
//   - 表头：星期 | 时间 | 教室 | 教师 | 活动 | 学期起止 | 周数
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportTerm(ctx context.Context, termID string) (*bytes.Buffer, string, error) {
	// 1. 查询学期
	term, err := s.repo.Term.GetByID(ctx, termID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrTermNotFound
		}
		s.logger.Error("查询学期失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 查询与学期有交集的已通过预约
	list, err := s.repo.Reservation.ListApprovedInRange(ctx, term.StartDate, term.EndDate)
	if err != nil {
		s.logger.Error("查询已通过预约失败", zap.Error(err))
		return nil, "", err
	}
	if len(list) == 0 {
		return nil, "", ErrExportNoReservations
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"星期", "时间", "教室", "教师", "活动", "学期起止", "周数"}
	widths := []float64{8, 14, 18, 14, 28, 24, 8}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s（%s ~ %s）", term.Name,
		booking.FormatDate(term.StartDate), booking.FormatDate(term.EndDate)))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// 数据行：仓储已按星期、开始时间排序
	row := 3
	for i := range list {
		r := &list[i]
		classroom, instructor := r.ClassroomID, r.InstructorID
		if r.Classroom != nil {
			classroom = r.Classroom.Name
		}
		if r.Instructor != nil {
			instructor = r.Instructor.Name
		}
		values := []interface{}{
			weekdayName(r.DayOfWeek),
			fmt.Sprintf("%s-%s", r.StartTime, r.EndTime),
			classroom,
			instructor,
			r.Activity,
			fmt.Sprintf("%s ~ %s", booking.FormatDate(r.TermStart), booking.FormatDate(r.TermEnd)),
			booking.CountOccurrences(time.Weekday(r.DayOfWeek), r.TermStart, r.TermEnd),
		}
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课表_%s.xlsx", term.Name)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
