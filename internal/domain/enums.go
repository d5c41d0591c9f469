package domain

// FileType represents the document types accepted for extraction.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf": FileTypePDF,
}

// ValidationSeverity classifies a finding. Errors make an invoice invalid;
// warnings are informational.
type ValidationSeverity string

const (
	ValidationSeverityError   ValidationSeverity = "error"
	ValidationSeverityWarning ValidationSeverity = "warning"
)

// ValidationRuleType groups rules by the kind of check they perform.
type ValidationRuleType string

const (
	ValidationRuleRequired  ValidationRuleType = "required"
	ValidationRuleFormat    ValidationRuleType = "format"
	ValidationRuleSumCheck  ValidationRuleType = "sum_check"
	ValidationRuleAnomaly   ValidationRuleType = "anomaly"
	ValidationRuleDuplicate ValidationRuleType = "duplicate"
)

// ValidationOutcome labels a validated invoice.
type ValidationOutcome string

const (
	OutcomeValid   ValidationOutcome = "valid"
	OutcomeInvalid ValidationOutcome = "invalid"
)
