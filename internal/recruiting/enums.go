package recruiting

// Enumerations are closed on the client side, but values outside them are
// still decoded and rendered verbatim.

type ProjectStatus string

const (
	ProjectDraft      ProjectStatus = "draft"
	ProjectOpen       ProjectStatus = "open"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectOnHold     ProjectStatus = "on-hold"
	ProjectClosed     ProjectStatus = "closed"
)

var projectStatusLabels = map[ProjectStatus]string{
	ProjectDraft:      "草稿",
	ProjectOpen:       "进行中",
	ProjectInProgress: "面试中",
	ProjectOnHold:     "暂停",
	ProjectClosed:     "已完成",
}

func (s ProjectStatus) Label() string { return label(projectStatusLabels, s) }
func (s ProjectStatus) Known() bool   { return known(projectStatusLabels, s) }

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityLabels = map[Priority]string{
	PriorityLow:    "低",
	PriorityNormal: "普通",
	PriorityHigh:   "高",
	PriorityUrgent: "紧急",
}

func (p Priority) Label() string { return label(priorityLabels, p) }
func (p Priority) Known() bool   { return known(priorityLabels, p) }

type JobType string

var jobTypeLabels = map[JobType]string{
	"full-time": "全职",
	"part-time": "兼职",
	"contract":  "合同工",
}

func (j JobType) Label() string { return label(jobTypeLabels, j) }

type JobLevel string

var jobLevelLabels = map[JobLevel]string{
	"entry":  "初级",
	"mid":    "中级",
	"senior": "高级",
	"lead":   "领导",
}

func (j JobLevel) Label() string { return label(jobLevelLabels, j) }

type RemotePolicy string

var remotePolicyLabels = map[RemotePolicy]string{
	"office": "办公室",
	"hybrid": "混合",
	"remote": "远程",
}

func (r RemotePolicy) Label() string { return label(remotePolicyLabels, r) }

type InterviewStatus string

const (
	InterviewScheduled  InterviewStatus = "scheduled"
	InterviewInProgress InterviewStatus = "in-progress"
	InterviewCompleted  InterviewStatus = "completed"
	InterviewCancelled  InterviewStatus = "cancelled"
	InterviewNoShow     InterviewStatus = "no_show"
)

var interviewStatusLabels = map[InterviewStatus]string{
	InterviewScheduled:  "已安排",
	InterviewInProgress: "进行中",
	InterviewCompleted:  "已完成",
	InterviewCancelled:  "已取消",
	InterviewNoShow:     "未到场",
}

func (s InterviewStatus) Label() string { return label(interviewStatusLabels, s) }
func (s InterviewStatus) Known() bool   { return known(interviewStatusLabels, s) }

type InterviewType string

var interviewTypeLabels = map[InterviewType]string{
	"technical":  "技术面试",
	"hr":         "HR面试",
	"manager":    "主管面试",
	"behavioral": "行为面试",
	"culture":    "文化面试",
}

func (t InterviewType) Label() string { return label(interviewTypeLabels, t) }

type Recommendation string

var recommendationLabels = map[Recommendation]string{
	"strong_hire": "强烈推荐",
	"hire":        "建议录用",
	"hold":        "待定",
	"reject":      "不建议录用",
}

func (r Recommendation) Label() string { return label(recommendationLabels, r) }

func label[K ~string](labels map[K]string, v K) string {
	if l, ok := labels[v]; ok {
		return l
	}
	return string(v)
}

func known[K ~string](labels map[K]string, v K) bool {
	_, ok := labels[v]
	return ok
}
