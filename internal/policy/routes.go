package policy

import "eduvista/internal/model"

var (
	adminOnly   = []model.Role{model.RoleAdmin}
	teacherOnly = []model.Role{model.RoleTeacher}
	studentOnly = []model.Role{model.RoleStudent}
)

// DefaultRoutes is the EduVista dashboard route table.
func DefaultRoutes() []model.Route {
	return []model.Route{
		{Path: LoginPath, Title: "Iniciar Sesión"},
		{Path: RegisterPath, Title: "Crear Cuenta"},
		{Path: NotFoundPath, Title: "Página no encontrada"},
		{Path: "/", RequiresAuth: true, RedirectTo: HomePath},

		{Path: HomePath, Title: "Dashboard", RequiresAuth: true},
		{Path: "/mensajes", Title: "Mensajes", RequiresAuth: true},

		{Path: "/gestion-alumnos", Title: "Gestionar Alumnos", RequiresAuth: true, Roles: adminOnly},
		{Path: "/gestion-docentes", Title: "Gestionar Docentes", RequiresAuth: true, Roles: adminOnly},
		{Path: "/materias", Title: "Materias", RequiresAuth: true, Roles: adminOnly},
		{Path: "/biblioteca", Title: "Biblioteca", RequiresAuth: true, Roles: adminOnly},
		{Path: "/analytics", Title: "Analíticas", RequiresAuth: true, Roles: adminOnly},
		{Path: "/reportes-financieros", Title: "Reportes Financieros", RequiresAuth: true, Roles: adminOnly},

		{Path: "/portal-docente", Title: "Portal del Docente", RequiresAuth: true, Roles: teacherOnly},
		{Path: "/mis-clases", Title: "Mis Clases", RequiresAuth: true, Roles: teacherOnly},
		{Path: "/asistencia", Title: "Asistencia", RequiresAuth: true, Roles: teacherOnly},

		{Path: "/horario", Title: "Mi Horario", RequiresAuth: true, Roles: studentOnly},
		{Path: "/pagos", Title: "Mis Pagos", RequiresAuth: true, Roles: studentOnly},
		{Path: "/calificaciones", Title: "Mis Calificaciones", RequiresAuth: true, Roles: studentOnly},
		{Path: "/mis-documentos", Title: "Mis Documentos", RequiresAuth: true, Roles: studentOnly},
		{Path: "/solicitar-documentos", Title: "Solicitar Documentos", RequiresAuth: true, Roles: studentOnly},
	}
}
