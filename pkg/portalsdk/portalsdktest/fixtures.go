package portalsdktest

import "github.com/aussiebroadwan/portal/pkg/portalsdk"

// Fixture credentials.
const (
	StudentUsuario  = "240001"
	StudentPassword = "secreto123"

	FirstSessionUsuario  = "240002"
	FirstSessionPassword = "temporal"
)

// DefaultStudents returns a returning student and one who still has to
// change the issued password.
func DefaultStudents() []Student {
	return []Student{
		{
			Usuario:  StudentUsuario,
			Password: StudentPassword,
			Academic: portalsdk.AcademicInfo{
				Alumno:          StudentUsuario,
				Nombres:         "maría elena",
				ApellidoPaterno: "quispe",
				ApellidoMaterno: "huamán",
				Carrera:         "MAESTRÍA EN INGENIERÍA DE SISTEMAS",
				Especialidad:    "Ciencia de Datos",
			},
			Personal: portalsdk.PersonalInfo{
				Alumno:          StudentUsuario,
				Nombres:         "maría elena",
				ApellidoPaterno: "quispe",
				ApellidoMaterno: "huamán",
				NroDocumento:    "45678912",
				Email:           "mquispe@example.edu.pe",
				Telefono:        "987654321",
				Direccion:       "Av. Universitaria 1801, Lima",
			},
			Grades: portalsdk.GradesReport{
				Notas: []portalsdk.Grade{
					{CursoID: "MIS101", NombreCurso: "Metodología de la Investigación", Semestre: "2024-1", Creditos: 4, Nota: 16, NotaAprobacion: 14, TipoNota: "R", Categoria: "Obligatorio", Resolucion: "R-001-2024", FechaFin: "2024-07-15"},
					{CursoID: "MIS102", NombreCurso: "Estadística Aplicada", Semestre: "2024-1", Creditos: 3, Nota: 12.5, NotaAprobacion: 14, TipoNota: "R", Categoria: "Obligatorio", Resolucion: "R-001-2024", FechaFin: "2024-07-15"},
					{CursoID: "MIS201", NombreCurso: "Aprendizaje Automático", Semestre: "2024-2", Creditos: 4, Nota: 18, NotaAprobacion: 14, TipoNota: "R", Categoria: "Electivo", Resolucion: "R-014-2024", FechaFin: "2024-12-10"},
				},
				TotalCreditos: 11,
			},
			Payments: portalsdk.PaymentsReport{
				Pagos: []portalsdk.Payment{
					{Recibo: "B001-000123", Semestre: "2024-1", Monto: 1250.5, Fecha: "2024-03-04", LugarPago: "Banco de la Nación"},
					{Recibo: "B001-000456", Semestre: "2024-2", Monto: 1250.5, Fecha: "2024-08-19", LugarPago: "Caja UNI"},
				},
				TotalPrograma:  10004,
				TotalPagado:    2501,
				TotalPendiente: 7503,
			},
		},
		{
			Usuario:      FirstSessionUsuario,
			Password:     FirstSessionPassword,
			FirstSession: true,
			Academic: portalsdk.AcademicInfo{
				Alumno:          FirstSessionUsuario,
				Nombres:         "josé",
				ApellidoPaterno: "ramírez",
				Carrera:         "DOCTORADO EN CIENCIAS",
			},
			Personal: portalsdk.PersonalInfo{
				Alumno:          FirstSessionUsuario,
				Nombres:         "josé",
				ApellidoPaterno: "ramírez",
				NroDocumento:    "12345678",
				Email:           "jramirez@example.edu.pe",
			},
		},
	}
}

// DefaultNotices returns the notices served by a fresh Backend.
func DefaultNotices() []portalsdk.Notice {
	return []portalsdk.Notice{
		{Titulo: "Matrícula 2025-1", Cuerpo: "La matrícula regular se realizará del 3 al 14 de marzo.", EnlaceVerMas: "https://example.edu.pe/matricula"},
		{Titulo: "Sustentaciones", Cuerpo: "Cronograma de sustentaciones de tesis publicado.", EnlaceImagen: "https://example.edu.pe/img/sustentaciones.png"},
	}
}

// DefaultLinks returns the links served by a fresh Backend.
func DefaultLinks() []portalsdk.Link {
	return []portalsdk.Link{
		{Titulo: "Biblioteca Central", Enlace: "https://example.edu.pe/biblioteca"},
		{Titulo: "Reglamento de Posgrado", Enlace: "https://example.edu.pe/reglamento.pdf"},
	}
}
