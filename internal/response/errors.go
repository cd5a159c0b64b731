package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrAdminAccessOnly  ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation           ErrCode = "VALIDATION_ERROR"
	ErrInvalidID            ErrCode = "INVALID_ID"
	ErrInvalidPayload       ErrCode = "INVALID_PAYLOAD"
	ErrUnknownKind          ErrCode = "UNKNOWN_KIND"
	ErrConfirmationRequired ErrCode = "CONFIRMATION_REQUIRED"

	// ─── Cleanup ───────────────────────────────────────────────────────
	ErrPlanNotFound ErrCode = "PLAN_NOT_FOUND"
	ErrRunNotFound  ErrCode = "RUN_NOT_FOUND"
	ErrPlanEmpty    ErrCode = "PLAN_EMPTY"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrTokenExpired:
		return "Token autentikasi telah kedaluwarsa."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrPermissionDenied:
		return "Izin ditolak."
	case ErrAdminAccessOnly:
		return "Sumber daya ini terbatas untuk administrator."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."
	case ErrUnknownKind:
		return "Jenis pembersihan tidak dikenal."
	case ErrConfirmationRequired:
		return "Penerapan rencana harus dikonfirmasi."

	// ─── Cleanup ───────────────────────────────────────────────────────
	case ErrPlanNotFound:
		return "Rencana pembersihan tidak ditemukan atau sudah kedaluwarsa."
	case ErrRunNotFound:
		return "Proses pembersihan tidak ditemukan."
	case ErrPlanEmpty:
		return "Rencana pembersihan tidak berisi perubahan."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
