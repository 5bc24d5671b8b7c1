package astedit

import "github.com/standardbeagle/lci/internal/types"

// identifierKindsByLang lists the node kinds RenameSymbol's File
// propagation treats as "an occurrence of this identifier" (spec §4.6:
// "all identifier-kind nodes whose text equals the old leaf name").
var identifierKindsByLang = map[types.Language][]string{
	types.LanguageGo:         {"identifier", "field_identifier", "type_identifier"},
	types.LanguageRust:       {"identifier", "type_identifier", "field_identifier"},
	types.LanguagePython:     {"identifier"},
	types.LanguageJavaScript: {"identifier", "property_identifier", "shorthand_property_identifier"},
	types.LanguageTypeScript: {"identifier", "property_identifier", "shorthand_property_identifier", "type_identifier"},
	types.LanguageTSX:        {"identifier", "property_identifier", "shorthand_property_identifier", "type_identifier"},
	types.LanguageCSharp:     {"identifier"},
	types.LanguagePHP:        {"name", "variable_name"},
}
