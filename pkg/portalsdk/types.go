package portalsdk

import "encoding/json"

// ============================================================================
// Endpoint paths
// ============================================================================

const (
	PathLogin                = "/auth/login"
	PathLogout               = "/auth/logout"
	PathRefresh              = "/auth/refresh"
	PathUpdatePassword       = "/auth/update-password"
	PathForgotPassword       = "/auth/forgot-password"
	PathUpdateForgotPassword = "/auth/update-forgot-password"

	PathAcademicInfo = "/users/academica"
	PathPersonalInfo = "/users/personal"
	PathGrades       = "/estudiante/notas"
	PathPayments     = "/estudiante/pagos"
	PathNotices      = "/notices/avisos"
	PathLinks        = "/notices/enlaces"
)

// RefreshCookieName is the httpOnly cookie the backend uses for the long-lived
// refresh credential.
const RefreshCookieName = "refreshToken"

// ============================================================================
// Envelope
// ============================================================================

// Envelope is the shape of every backend response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// MessageResult is returned by endpoints whose success payload is just a message.
type MessageResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Usuario     string `json:"usuario"`
	Contrasenia string `json:"contrasenia"`
}

// LoginResponse is the data payload of a successful login.
type LoginResponse struct {
	AccessToken   string `json:"accessToken"`
	Usuario       string `json:"usuario"`
	PrimeraSesion bool   `json:"primeraSesion"`
}

// RefreshResponse is the data payload of a successful refresh.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	Username    string `json:"username"`
}

// UpdatePasswordRequest is the body of both password update endpoints.
type UpdatePasswordRequest struct {
	NuevaContrasenia string `json:"nuevaContrasenia"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Codigo string `json:"codigo"`
}

// ============================================================================
// Student Types
// ============================================================================

// AcademicInfo is the student record returned by GET /users/academica.
type AcademicInfo struct {
	Alumno          string `json:"alumno" yaml:"alumno"`
	Nombres         string `json:"nombres" yaml:"nombres"`
	ApellidoPaterno string `json:"apellidoPaterno" yaml:"apellidoPaterno"`
	ApellidoMaterno string `json:"apellidoMaterno" yaml:"apellidoMaterno"`
	Carrera         string `json:"carrera" yaml:"carrera"`
	Especialidad    string `json:"especialidad,omitempty" yaml:"especialidad,omitempty"`
}

// PersonalInfo is the personal record returned by GET /users/personal.
type PersonalInfo struct {
	Alumno          string `json:"alumno" yaml:"alumno"`
	Nombres         string `json:"nombres" yaml:"nombres"`
	ApellidoPaterno string `json:"apellidoPaterno" yaml:"apellidoPaterno"`
	ApellidoMaterno string `json:"apellidoMaterno" yaml:"apellidoMaterno"`
	NroDocumento    string `json:"nroDocumento" yaml:"nroDocumento"`
	Email           string `json:"email" yaml:"email"`
	Telefono        string `json:"telefono" yaml:"telefono"`
	Direccion       string `json:"direccion" yaml:"direccion"`
}

// Grade is a single course grade.
type Grade struct {
	CursoID        string  `json:"cursoId" yaml:"cursoId"`
	NombreCurso    string  `json:"nombreCurso" yaml:"nombreCurso"`
	Semestre       string  `json:"semestre" yaml:"semestre"`
	Creditos       float64 `json:"creditos" yaml:"creditos"`
	Nota           float64 `json:"nota" yaml:"nota"`
	NotaAprobacion float64 `json:"notaAprobacion" yaml:"notaAprobacion"`
	TipoNota       string  `json:"tipoNota" yaml:"tipoNota"`
	Categoria      string  `json:"categoria" yaml:"categoria"`
	Resolucion     string  `json:"resolucion" yaml:"resolucion"`
	FechaFin       string  `json:"fechaFin,omitempty" yaml:"fechaFin,omitempty"`
}

// Approved reports whether the grade reaches the course's passing mark.
func (g Grade) Approved() bool { return g.Nota >= g.NotaAprobacion }

// GradesReport is the payload of GET /estudiante/notas.
type GradesReport struct {
	Notas         []Grade `json:"notas" yaml:"notas"`
	TotalCreditos float64 `json:"totalCreditos" yaml:"totalCreditos"`
}

// Payment is a single payment record.
type Payment struct {
	Recibo    string  `json:"recibo" yaml:"recibo"`
	Semestre  string  `json:"semestre" yaml:"semestre"`
	Monto     float64 `json:"monto" yaml:"monto"`
	Fecha     string  `json:"fecha" yaml:"fecha"`
	LugarPago string  `json:"lugarPago" yaml:"lugarPago"`
}

// PaymentsReport is the payload of GET /estudiante/pagos.
type PaymentsReport struct {
	Pagos          []Payment `json:"pagos" yaml:"pagos"`
	TotalPrograma  float64   `json:"totalPrograma" yaml:"totalPrograma"`
	TotalPagado    float64   `json:"totalPagado" yaml:"totalPagado"`
	TotalPendiente float64   `json:"totalPendiente" yaml:"totalPendiente"`
}

// Notice is an entry of GET /notices/avisos.
type Notice struct {
	Titulo       string `json:"titulo" yaml:"titulo"`
	Cuerpo       string `json:"cuerpo,omitempty" yaml:"cuerpo,omitempty"`
	EnlaceImagen string `json:"enlaceImagen,omitempty" yaml:"enlaceImagen,omitempty"`
	EnlaceVerMas string `json:"enlaceVerMas,omitempty" yaml:"enlaceVerMas,omitempty"` // "Ver más" target
}

// Link is an entry of GET /notices/enlaces.
type Link struct {
	Titulo string `json:"titulo" yaml:"titulo"`
	Enlace string `json:"enlace" yaml:"enlace"`
}
