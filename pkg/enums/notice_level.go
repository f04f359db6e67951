package enums

// NoticeLevel is the severity attached to a user-visible notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeDanger  NoticeLevel = "danger"
)

// String implements fmt.Stringer.
func (n NoticeLevel) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NoticeLevel.
func (n NoticeLevel) IsValid() bool {
	switch n {
	case NoticeSuccess, NoticeInfo, NoticeWarning, NoticeDanger:
		return true
	default:
		return false
	}
}
