package errors

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	CodeMissingSection: {
		Code:            CodeMissingSection,
		Description:     "A required section heading is absent from the export",
		SuggestedAction: "Check the heading text: attend inspect <export>, or adjust attendance.headings in the config",
	},
	CodeFormat: {
		Code:            CodeFormat,
		Description:     "A timestamp does not match the configured datetime pattern",
		SuggestedAction: "Set attendance.datetime_pattern to match the export: attend config set attendance.datetime_pattern '<pattern>'",
	},
	CodeMalformedRow: {
		Code:            CodeMalformedRow,
		Description:     "A row has fewer fields than its section requires",
		SuggestedAction: "Verify the delimiter and encoding: attend config set export.delimiter '\\t'",
	},
	CodeInvalidConfig: {
		Code:            CodeInvalidConfig,
		Description:     "Configuration or flag value is invalid",
		SuggestedAction: "Review settings: attend config show",
	},
	CodeIO: {
		Code:            CodeIO,
		Description:     "The export could not be read",
		SuggestedAction: "Check the path and file permissions",
	},
	CodeSink: {
		Code:            CodeSink,
		Description:     "The qualification result could not be written",
		SuggestedAction: "Check sink settings: attend config show, and credentials: attend auth set <name>",
	},
	CodeCancelled: {
		Code:            CodeCancelled,
		Description:     "Operation cancelled by user or system",
		SuggestedAction: "Re-run the command",
	},
	CodeUnknown: {
		Code:            CodeUnknown,
		Description:     "Unclassified error",
		SuggestedAction: "Re-run with --debug for more detail",
	},
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Re-run with --debug for more detail"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
