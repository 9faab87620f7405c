package recruiting

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const scheduledTimeLayout = "2006-01-02T15:04:05"

var (
	validate = newValidator()

	scheduledTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2})?$`)
)

// fieldMessages maps "field.tag" to the text shown for a failed rule.
var fieldMessages = map[string]string{
	"name.required":           "请输入候选人姓名",
	"email.required":          "请输入邮箱",
	"email.email":             "邮箱格式无效",
	"title.min":               "职位名称至少2个字符",
	"department.min":          "部门名称至少2个字符",
	"headcount.min":           "招聘人数至少1人",
	"job_type.required":       "请选择工作类型",
	"job_type.oneof":          "请选择工作类型",
	"job_level.required":      "请选择职级",
	"job_level.oneof":         "请选择职级",
	"location.min":            "请填写工作地点",
	"remote_policy.required":  "请选择远程工作政策",
	"remote_policy.oneof":     "请选择远程工作政策",
	"description.min":         "职位描述至少10个字符",
	"responsibilities.min":    "至少添加一项工作职责",
	"qualifications.min":      "至少添加一项任职要求",
	"priority.required":       "请选择优先级",
	"priority.oneof":          "请选择优先级",
	"status.oneof":            "请选择有效的状态",
	"project_id.required":     "请选择项目",
	"project_id.uuid":         "项目ID格式无效",
	"candidate_id.required":   "请选择候选人：从下拉列表中选择一位候选人",
	"candidate_id.uuid":       "候选人ID格式无效",
	"interview_type.oneof":    "请选择有效的面试类型",
	"technical_score.min":     "技术评分必须在1-5之间",
	"technical_score.max":     "技术评分必须在1-5之间",
	"communication_score.min": "沟通评分必须在1-5之间",
	"communication_score.max": "沟通评分必须在1-5之间",
	"culture_fit_score.min":   "文化匹配评分必须在1-5之间",
	"culture_fit_score.max":   "文化匹配评分必须在1-5之间",
	"overall_rating.min":      "总体评分必须在1-5之间",
	"overall_rating.max":      "总体评分必须在1-5之间",
	"recommendation.required": "请选择推荐意见",
	"recommendation.oneof":    "请选择推荐意见",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tag rules and reports the first failure.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate %T: %w", v, err)
	}

	fe := fieldErrs[0]
	msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
	if !ok {
		msg = fmt.Sprintf("字段 %s 无效（%s）", fe.Field(), fe.Tag())
	}

	var cause error
	if fe.Tag() == "uuid" {
		cause = ErrInvalidID
	} else if fe.Tag() == "required" && strings.HasSuffix(fe.Field(), "_id") {
		cause = ErrMissingID
	}

	return invalid(fe.Field(), msg, cause)
}

// requireID checks an identifier used in a request path or form field.
func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid(field, "缺少ID", ErrMissingID)
	}
	if _, err := uuid.Parse(id); err != nil {
		return invalid(field, "ID格式无效", ErrInvalidID)
	}
	return nil
}

// ParseScheduledTime accepts YYYY-MM-DDTHH:MM with optional seconds in the
// local zone and requires the result to be strictly after now.
func ParseScheduledTime(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if !scheduledTimePattern.MatchString(value) {
		return time.Time{}, invalid("scheduled_time",
			"日期时间格式错误：请使用正确的格式（例如：2025-02-20T14:00）", ErrInvalidTimeFormat)
	}

	if len(value) == len("2006-01-02T15:04") {
		value += ":00"
	}

	t, err := time.ParseInLocation(scheduledTimeLayout, value, time.Local)
	if err != nil {
		return time.Time{}, invalid("scheduled_time",
			"日期时间格式错误：请使用正确的格式（例如：2025-02-20T14:00）", errors.Join(ErrInvalidTimeFormat, err))
	}

	if !t.After(now) {
		return time.Time{}, invalid("scheduled_time", "面试时间无效：请选择未来时间", ErrScheduledInPast)
	}

	return t, nil
}
