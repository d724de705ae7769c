// Package ast wraps tree-sitter for the two grammars the analyzer actually
// walks (TypeScript and HTML), and gives every other package in this module
// a single place to enumerate the repo's tracked files, load their source,
// and evaluate the small subset of expressions spec.md treats as literals.
package ast

// TypeScript tree-sitter node types. Names mirror the grammar at
// https://github.com/tree-sitter/tree-sitter-typescript; the analyzer only
// walks the shapes the Framework Symbol Extractor and Typed-Source Edge
// Extractor actually care about.
const (
	TSNodeProgram            = "program"
	TSNodeImportStatement    = "import_statement"
	TSNodeImportClause       = "import_clause"
	TSNodeString             = "string"
	TSNodeStringFragment     = "string_fragment"
	TSNodeTemplateString     = "template_string"
	TSNodeBinaryExpression   = "binary_expression"
	TSNodeClassDeclaration   = "class_declaration"
	TSNodeDecorator          = "decorator"
	TSNodeCallExpression     = "call_expression"
	TSNodeNewExpression      = "new_expression"
	TSNodeArguments          = "arguments"
	TSNodeIdentifier         = "identifier"
	TSNodeTypeIdentifier     = "type_identifier"
	TSNodePropertyIdentifier = "property_identifier"
	TSNodeObject             = "object"
	TSNodePair               = "pair"
	TSNodeArray              = "array"
	TSNodeMemberExpression   = "member_expression"
	TSNodeLexicalDeclaration = "lexical_declaration"
	TSNodeVariableDeclarator = "variable_declarator"
	TSNodeExportStatement    = "export_statement"
	TSNodeArrowFunction      = "arrow_function"
	TSNodeStatementBlock     = "statement_block"
	TSNodeReturnStatement    = "return_statement"
	TSNodeImportKeyword      = "import"
)

// HTML tree-sitter node types, mirroring
// https://github.com/tree-sitter/tree-sitter-html.
const (
	HTMLNodeDocument             = "document"
	HTMLNodeElement              = "element"
	HTMLNodeStartTag             = "start_tag"
	HTMLNodeEndTag               = "end_tag"
	HTMLNodeSelfClosingTag       = "self_closing_tag"
	HTMLNodeTagName              = "tag_name"
	HTMLNodeText                 = "text"
	HTMLNodeAttribute            = "attribute"
	HTMLNodeAttributeName        = "attribute_name"
	HTMLNodeAttributeValue       = "attribute_value"
	HTMLNodeQuotedAttributeValue = "quoted_attribute_value"
)
