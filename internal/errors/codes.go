// Package errors provides the structured diagnostic type shared by every
// compiler stage (lexer through parlib), plus the stable error code
// taxonomy from spec §7.
package errors

// Code is a stable, human-readable diagnostic code. Codes never change
// meaning once shipped; message text may.
type Code string

const (
	// Lex/parse
	UnexpectedToken          Code = "UnexpectedToken"
	ExpectedToken            Code = "ExpectedToken"
	UnexpectedEof            Code = "UnexpectedEof"
	NestedTernaryNotAllowed  Code = "NestedTernaryNotAllowed"
	AmbiguousAmpPrefixChain  Code = "AmbiguousAmpPrefixChain"
	ArraySizeExpectedIntLit  Code = "ArraySizeExpectedIntLiteral"
	ArraySizeInvalidLiteral  Code = "ArraySizeInvalidLiteral"
	LoopHeaderExpectedParen  Code = "LoopHeaderExpectedLParen"
	LoopHeaderVarExpectedIdent Code = "LoopHeaderVarExpectedIdent"

	// Declarations
	FnNameExpected                        Code = "FnNameExpected"
	FnParamDefaultNotAllowedOutsideNamedGroup Code = "FnParamDefaultNotAllowedOutsideNamedGroup"
	FnOnlyOneNamedGroupAllowed             Code = "FnOnlyOneNamedGroupAllowed"
	OperatorKeyExpected                    Code = "OperatorKeyExpected"
	OperatorSelfFirstParamRequired         Code = "OperatorSelfFirstParamRequired"
	ClassLifecycleSelfNotAllowed           Code = "ClassLifecycleSelfNotAllowed"
	AbiCOverloadNotAllowed                 Code = "AbiCOverloadNotAllowed"
	AbiCNamedGroupNotAllowed               Code = "AbiCNamedGroupNotAllowed"
	AbiCTypeNotFfiSafe                     Code = "AbiCTypeNotFfiSafe"
	AbiCGlobalMustBeStatic                 Code = "AbiCGlobalMustBeStatic"

	// Name resolve
	UndefinedName       Code = "UndefinedName"
	DuplicateDecl       Code = "DuplicateDecl"
	Shadowing           Code = "Shadowing"
	ShadowingNotAllowed Code = "ShadowingNotAllowed"

	// Type check
	TypeMismatch              Code = "TypeMismatch"
	TypeLetInitMismatch       Code = "TypeLetInitMismatch"
	TypeArgCountMismatch      Code = "TypeArgCountMismatch"
	TypeCondMustBeBool        Code = "TypeCondMustBeBool"
	TypeIndexMustBeUSize      Code = "TypeIndexMustBeUSize"
	TypeReturnOutsideFn       Code = "TypeReturnOutsideFn"
	OverloadAmbiguousCall     Code = "OverloadAmbiguousCall"
	OverloadNoMatchingCall    Code = "OverloadNoMatchingCall"
	TyckCastNullToNonOptional Code = "TyckCastNullToNonOptional"
	TyckCastNotAllowed        Code = "TyckCastNotAllowed"
	IntLiteralDoesNotFit      Code = "IntLiteralDoesNotFit"
	IntLiteralNeedsTypeContext Code = "IntLiteralNeedsTypeContext"
	AssignLhsMustBePlace      Code = "AssignLhsMustBePlace"
	PostfixOperandMustBePlace Code = "PostfixOperandMustBePlace"
	TypeBreakValueOnlyInLoopExpr Code = "TypeBreakValueOnlyInLoopExpr"

	// Capability
	BorrowOperandMustBePlace       Code = "BorrowOperandMustBePlace"
	BorrowMutRequiresMutablePlace  Code = "BorrowMutRequiresMutablePlace"
	BorrowMutConflict              Code = "BorrowMutConflict"
	BorrowMutConflictWithShared     Code = "BorrowMutConflictWithShared"
	BorrowSharedConflictWithMut     Code = "BorrowSharedConflictWithMut"
	BorrowMutDirectAccessConflict   Code = "BorrowMutDirectAccessConflict"
	BorrowSharedWriteConflict       Code = "BorrowSharedWriteConflict"
	BorrowEscapeToStorage           Code = "BorrowEscapeToStorage"
	BorrowEscapeFromReturn          Code = "BorrowEscapeFromReturn"
	EscapeOperandMustBePlace        Code = "EscapeOperandMustBePlace"
	EscapeOperandMustNotBeBorrow    Code = "EscapeOperandMustNotBeBorrow"
	EscapeWhileMutBorrowActive      Code = "EscapeWhileMutBorrowActive"
	EscapeWhileBorrowActive         Code = "EscapeWhileBorrowActive"
	UseAfterEscapeMove              Code = "UseAfterEscapeMove"
	SirEscapeBoundaryViolation      Code = "SirEscapeBoundaryViolation"
	TypeEscapeNotAllowedInPureComptime Code = "TypeEscapeNotAllowedInPureComptime"

	// Archive (parlib)
	ArchiveBadAlignment     Code = "ArchiveBadAlignment"
	ArchiveBadCompression   Code = "ArchiveBadCompression"
	ArchiveFileTooSmall     Code = "ArchiveFileTooSmall"
	ArchiveBadMagic         Code = "ArchiveBadMagic"
	ArchiveTocOutOfBounds   Code = "ArchiveTocOutOfBounds"
	ArchiveChecksumMismatch Code = "ArchiveChecksumMismatch"
	ArchiveHashMismatch     Code = "ArchiveHashMismatch"
	ArchiveSizeMismatch     Code = "ArchiveSizeMismatch"

	// OIR verifier
	OirBadBlockOwner     Code = "OirBadBlockOwner"
	OirMissingTerminator Code = "OirMissingTerminator"
	OirBadBranchTarget   Code = "OirBadBranchTarget"
	OirBranchArgMismatch Code = "OirBranchArgMismatch"
	OirIDOutOfRange      Code = "OirIDOutOfRange"
	OirEscapeHeapBox      Code = "OirEscapeHeapBox"

	// Link driver
	LinkArchiveUnreadable     Code = "LinkArchiveUnreadable"
	LinkFeatureBitsMismatch   Code = "LinkFeatureBitsMismatch"
	LinkNoObjectArchive       Code = "LinkNoObjectArchive"
	LinkToolchainHashMismatch Code = "LinkToolchainHashMismatch"
	LinkTargetHashMismatch    Code = "LinkTargetHashMismatch"

	// Runtime/generic
	Generic Code = "Generic"
)
