package domain

import "errors"

var (
	ErrSeriesEmptyName      = errors.New("series name cannot be empty")
	ErrSeriesArchived       = errors.New("series is archived")
	ErrSeriesNoPatterns     = errors.New("series must have at least one pattern")
	ErrSeriesInvalidDates   = errors.New("series end date must be after start date")
	ErrPatternInvalidKind   = errors.New("invalid pattern kind")
	ErrPatternNoWeekdays    = errors.New("weekly pattern requires at least one weekday")
	ErrPatternInvalidDay    = errors.New("monthly pattern day of month must be between 1 and 31")
	ErrPatternInvalidWindow = errors.New("time window end must be after start")
	ErrDurationNonPositive  = errors.New("duration must be positive")
	ErrChainUnknownParent   = errors.New("chain parent series does not exist")
	ErrChainSelfReference   = errors.New("a series cannot chain to itself")
	ErrChainCycle           = errors.New("chain link would introduce a cycle")
	ErrExceptionNotFound    = errors.New("instance exception not found")
	ErrCompletionDuplicate  = errors.New("instance already has a completion logged")
	ErrReminderArchived     = errors.New("reminder belongs to an archived series")
	ErrReminderLeadNegative = errors.New("reminder lead minutes cannot be negative")
	ErrConstraintInvalidKind = errors.New("invalid constraint kind")
	ErrConstraintSameTarget  = errors.New("constraint targets must differ")
	ErrAckInvalidDate        = errors.New("reminder acknowledgment requires an instance date")

	ErrDuplicateKey        = errors.New("DUPLICATE_KEY")
	ErrNotFound            = errors.New("NOT_FOUND")
	ErrForeignKey          = errors.New("FOREIGN_KEY")
	ErrInvalidData         = errors.New("INVALID_DATA")
	ErrValidation          = errors.New("VALIDATION")
	ErrLockedSeries        = errors.New("LOCKED_SERIES")
	ErrCompletionsExist    = errors.New("COMPLETIONS_EXIST")
	ErrLinkedChildrenExist = errors.New("LINKED_CHILDREN_EXIST")
	ErrNonExistentInstance = errors.New("NON_EXISTENT_INSTANCE")
	ErrAlreadyCancelled    = errors.New("ALREADY_CANCELLED")
	ErrCancelledInstance   = errors.New("CANCELLED_INSTANCE")
	ErrCycleDetected       = errors.New("CYCLE_DETECTED")
	ErrChainDepthExceeded  = errors.New("CHAIN_DEPTH_EXCEEDED")
	ErrDuplicateCompletion = errors.New("DUPLICATE_COMPLETION")
	ErrParseError          = errors.New("PARSE_ERROR")
	ErrInvalidPattern      = errors.New("INVALID_PATTERN")
	ErrInvalidRange        = errors.New("INVALID_RANGE")
	ErrInvalidCondition    = errors.New("INVALID_CONDITION")
)

// MaxChainDepth is the implementation limit on parent->child chain depth
// (spec §3).
const MaxChainDepth = 32
