package rules

// Trigger bits carried in a rule's type field. They control when the mail
// client evaluates the rule.
const (
	TriggerNewMail          = 1
	TriggerNewMailAfterJunk = 2
	TriggerManual           = 16
	TriggerAfterSending     = 32
	TriggerArchiving        = 64
	TriggerPeriodic         = 128
)

// DefaultMask is used whenever a caller asks for a mask with no bits set.
// A generated rule must never carry type="0" - the client would treat it
// as never firing.
const DefaultMask = TriggerManual | TriggerNewMail

// Flags names the trigger bits for callers that build masks from options
// rather than raw integers.
type Flags struct {
	NewMail          bool
	NewMailAfterJunk bool
	Manual           bool
	AfterSending     bool
	Archiving        bool
	Periodic         bool
}

// CalculateType folds flags into a trigger mask. Zero flags yield
// DefaultMask.
func CalculateType(f Flags) int {
	mask := 0
	if f.NewMail {
		mask |= TriggerNewMail
	}
	if f.NewMailAfterJunk {
		mask |= TriggerNewMailAfterJunk
	}
	if f.Manual {
		mask |= TriggerManual
	}
	if f.AfterSending {
		mask |= TriggerAfterSending
	}
	if f.Archiving {
		mask |= TriggerArchiving
	}
	if f.Periodic {
		mask |= TriggerPeriodic
	}
	if mask == 0 {
		return DefaultMask
	}
	return mask
}
