package booking

import (
	"errors"
	"fmt"
)

// Action 生命周期操作
type Action string

const (
	ActionApprove             Action = "approve"
	ActionReject              Action = "reject"
	ActionRequestModification Action = "request_modification"
	ActionApproveModification Action = "approve_modification"
	ActionRejectModification  Action = "reject_modification"
	ActionRequestCancellation Action = "request_cancellation"
	ActionApproveCancellation Action = "approve_cancellation"
	ActionRejectCancellation  Action = "reject_cancellation"
)

// ErrInvalidTransition 当前状态不允许该操作
var ErrInvalidTransition = errors.New("当前状态不允许该操作")

// transitions 状态迁移表：action → from → to。
// 修改审批同时作用于原预约（ModificationRequested）与影子预约（ModificationPending）。
var transitions = map[Action]map[Status]Status{
	ActionApprove: {
		StatusPending: StatusApproved,
	},
	ActionReject: {
		StatusPending: StatusRejected,
	},
	ActionRequestModification: {
		StatusApproved: StatusModificationRequested,
	},
	ActionApproveModification: {
		StatusModificationRequested: StatusCancelled,
		StatusModificationPending:   StatusApproved,
	},
	ActionRejectModification: {
		StatusModificationRequested: StatusApproved,
		StatusModificationPending:   StatusRejected,
	},
	ActionRequestCancellation: {
		StatusApproved: StatusCancellationRequested,
	},
	ActionApproveCancellation: {
		StatusCancellationRequested: StatusCancelled,
	},
	ActionRejectCancellation: {
		StatusCancellationRequested: StatusApproved,
	},
}

// Transition 计算 from 状态执行 action 后的目标状态。
// 不在迁移表中的组合返回 ErrInvalidTransition。
func Transition(from Status, action Action) (Status, error) {
	to, ok := transitions[action][from]
	if !ok {
		return from, fmt.Errorf("%w: %s 不能执行 %s", ErrInvalidTransition, from, action)
	}
	return to, nil
}

// AllowedActions 返回 from 状态下可执行的操作（用于前端按钮渲染）
func AllowedActions(from Status) []Action {
	order := []Action{
		ActionApprove,
		ActionReject,
		ActionRequestModification,
		ActionApproveModification,
		ActionRejectModification,
		ActionRequestCancellation,
		ActionApproveCancellation,
		ActionRejectCancellation,
	}
	var out []Action
	for _, a := range order {
		if _, ok := transitions[a][from]; ok {
			out = append(out, a)
		}
	}
	return out
}
