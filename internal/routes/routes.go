package routes

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"facility-crm/internal/controllers"
	"facility-crm/internal/repositories"
	"facility-crm/internal/services"
	"facility-crm/pkg/config"
	"facility-crm/pkg/eventbus"
	"facility-crm/pkg/middleware"
	"facility-crm/pkg/service"
	"facility-crm/pkg/websocket"
)

type Loggers struct {
	Main      *zap.Logger
	Auth      *zap.Logger
	WorkOrder *zap.Logger
	Activity  *zap.Logger
}

func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	jwtSvc service.JWTService,
	loggers *Loggers,
	authPermissionService services.AuthPermissionServiceInterface,
	bus *eventbus.Bus,
	hub *websocket.Hub,
	cfg *config.Config,
) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, authPermissionService, loggers.Auth)
	txManager := repositories.NewTxManager(dbConn)

	// --- 1. РЕПОЗИТОРИИ ---
	employeeRepo := repositories.NewEmployeeRepository(dbConn, loggers.Main)
	roleRepo := repositories.NewRoleRepository(dbConn, loggers.Main)
	permissionRepo := repositories.NewPermissionRepository(dbConn, loggers.Main)
	departmentRepo := repositories.NewDepartmentRepository(dbConn, loggers.Main)
	positionRepo := repositories.NewPositionRepository(dbConn, loggers.Main)
	clientRepo := repositories.NewClientRepository(dbConn, loggers.Main)
	buildingRepo := repositories.NewBuildingRepository(dbConn, loggers.Main)
	assetRepo := repositories.NewAssetRepository(dbConn, loggers.Main)
	workOrderRepo := repositories.NewWorkOrderRepository(dbConn, loggers.WorkOrder)
	incidentRepo := repositories.NewIncidentRepository(dbConn, loggers.Main)
	activityRepo := repositories.NewActivityRepository(dbConn, loggers.Activity)

	// --- 2. СЕРВИСЫ ---
	maxDepth := cfg.Permissions.DepartmentMaxDepth
	activityService := services.NewActivityService(activityRepo, employeeRepo, departmentRepo, assetRepo, bus, loggers.Activity)

	roleService := services.NewRoleService(roleRepo, permissionRepo, txManager, authPermissionService, loggers.Main)
	permissionService := services.NewPermissionService(permissionRepo, employeeRepo, txManager, authPermissionService, loggers.Main)
	departmentService := services.NewDepartmentService(departmentRepo, permissionRepo, txManager, authPermissionService, maxDepth, loggers.Main)
	positionService := services.NewPositionService(positionRepo, loggers.Main)
	employeeService := services.NewEmployeeService(employeeRepo, authPermissionService, loggers.Main)
	clientService := services.NewClientService(clientRepo, loggers.Main)
	buildingService := services.NewBuildingService(buildingRepo, loggers.Main)
	assetService := services.NewAssetService(assetRepo, loggers.Main)
	workOrderService := services.NewWorkOrderService(workOrderRepo, employeeRepo, activityRepo, activityService, txManager, loggers.WorkOrder)
	incidentService := services.NewIncidentService(incidentRepo, employeeRepo, activityRepo, activityService, txManager, loggers.Main)
	navigationService := services.NewNavigationService(
		workOrderService,
		incidentService,
		buildingService,
		clientService,
		assetService,
		employeeService,
		departmentService,
		0,
		loggers.Main,
	)

	// --- 3. РОУТЕРЫ ---
	secureGroup := api.Group("", authMW.Auth)

	runPermissionRouter(secureGroup, permissionService, loggers.Main)
	runRoleRouter(secureGroup, roleService, loggers.Main)
	runDepartmentRouter(secureGroup, departmentService, loggers.Main)
	runPositionRouter(secureGroup, positionService, loggers.Main)
	runEmployeeRouter(secureGroup, employeeService, permissionService, loggers.Main)
	runClientRouter(secureGroup, clientService, loggers.Main)
	runBuildingRouter(secureGroup, buildingService, loggers.Main)
	runAssetRouter(secureGroup, assetService, loggers.Main)
	runWorkOrderRouter(secureGroup, workOrderService, loggers.WorkOrder)
	runIncidentRouter(secureGroup, incidentService, loggers.Main)
	runNavigationRouter(secureGroup, navigationService, loggers.Main)
	runWebSocketRouter(secureGroup, hub, cfg.Server.CORSOrigins, loggers.Main)

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
}

func runPermissionRouter(secureGroup *echo.Group, permissionService services.PermissionServiceInterface, logger *zap.Logger) {
	permissionCtrl := controllers.NewPermissionController(permissionService, logger)

	secureGroup.GET("/me", permissionCtrl.GetMe)
	secureGroup.GET("/me/permissions", permissionCtrl.GetMyPermissions)

	permissions := secureGroup.Group("/permissions")
	permissions.GET("", permissionCtrl.GetPermissions)
	permissions.POST("", permissionCtrl.CreatePermission)
	permissions.GET("/:id", permissionCtrl.FindPermission)
	permissions.PUT("/:id", permissionCtrl.UpdatePermission)
	permissions.DELETE("/:id", permissionCtrl.DeletePermission)
}

func runRoleRouter(secureGroup *echo.Group, roleService services.RoleServiceInterface, logger *zap.Logger) {
	roleCtrl := controllers.NewRoleController(roleService, logger)

	roles := secureGroup.Group("/roles")
	roles.GET("", roleCtrl.GetRoles)
	roles.POST("", roleCtrl.CreateRole)
	roles.GET("/:id", roleCtrl.FindRole)
	roles.PUT("/:id", roleCtrl.UpdateRole)
	roles.DELETE("/:id", roleCtrl.DeleteRole)
	roles.GET("/:id/permissions", roleCtrl.GetRolePermissions)
	roles.PUT("/:id/permissions", roleCtrl.ReplaceRolePermissions)
}

func runDepartmentRouter(secureGroup *echo.Group, departmentService services.DepartmentServiceInterface, logger *zap.Logger) {
	departmentCtrl := controllers.NewDepartmentController(departmentService, logger)

	departments := secureGroup.Group("/departments")
	departments.GET("", departmentCtrl.GetDepartments)
	departments.POST("", departmentCtrl.CreateDepartment)
	departments.GET("/:id", departmentCtrl.FindDepartment)
	departments.PUT("/:id", departmentCtrl.UpdateDepartment)
	departments.DELETE("/:id", departmentCtrl.DeleteDepartment)
	departments.GET("/:id/ancestors", departmentCtrl.GetAncestors)
	departments.GET("/:id/permissions", departmentCtrl.GetDepartmentPermissions)
	departments.PUT("/:id/permissions", departmentCtrl.ReplaceDepartmentPermissions)
}

func runPositionRouter(secureGroup *echo.Group, positionService services.PositionServiceInterface, logger *zap.Logger) {
	positionCtrl := controllers.NewPositionController(positionService, logger)

	positions := secureGroup.Group("/positions")
	positions.GET("", positionCtrl.GetPositions)
	positions.POST("", positionCtrl.CreatePosition)
	positions.GET("/:id", positionCtrl.FindPosition)
	positions.PUT("/:id", positionCtrl.UpdatePosition)
	positions.DELETE("/:id", positionCtrl.DeletePosition)
}

func runEmployeeRouter(
	secureGroup *echo.Group,
	employeeService services.EmployeeServiceInterface,
	permissionService services.PermissionServiceInterface,
	logger *zap.Logger,
) {
	employeeCtrl := controllers.NewEmployeeController(employeeService, logger)
	permissionCtrl := controllers.NewPermissionController(permissionService, logger)

	employees := secureGroup.Group("/employees")
	employees.GET("", employeeCtrl.GetEmployees)
	employees.POST("", employeeCtrl.CreateEmployee)
	employees.GET("/:id", employeeCtrl.FindEmployee)
	employees.PUT("/:id", employeeCtrl.UpdateEmployee)
	employees.DELETE("/:id", employeeCtrl.DeleteEmployee)
	employees.GET("/:id/permissions", permissionCtrl.GetEmployeePermissions)
	employees.PUT("/:id/permissions/overrides", permissionCtrl.ReplaceOverrides)
}

func runClientRouter(secureGroup *echo.Group, clientService services.ClientServiceInterface, logger *zap.Logger) {
	clientCtrl := controllers.NewClientController(clientService, logger)

	clients := secureGroup.Group("/clients")
	clients.GET("", clientCtrl.GetClients)
	clients.POST("", clientCtrl.CreateClient)
	clients.GET("/:id", clientCtrl.FindClient)
	clients.PUT("/:id", clientCtrl.UpdateClient)
	clients.DELETE("/:id", clientCtrl.DeleteClient)
}

func runBuildingRouter(secureGroup *echo.Group, buildingService services.BuildingServiceInterface, logger *zap.Logger) {
	buildingCtrl := controllers.NewBuildingController(buildingService, logger)

	buildings := secureGroup.Group("/buildings")
	buildings.GET("", buildingCtrl.GetBuildings)
	buildings.POST("", buildingCtrl.CreateBuilding)
	buildings.GET("/:id", buildingCtrl.FindBuilding)
	buildings.PUT("/:id", buildingCtrl.UpdateBuilding)
	buildings.DELETE("/:id", buildingCtrl.DeleteBuilding)
}

func runAssetRouter(secureGroup *echo.Group, assetService services.AssetServiceInterface, logger *zap.Logger) {
	assetCtrl := controllers.NewAssetController(assetService, logger)

	assets := secureGroup.Group("/assets")
	assets.GET("", assetCtrl.GetAssets)
	assets.POST("", assetCtrl.CreateAsset)
	assets.GET("/:id", assetCtrl.FindAsset)
	assets.PUT("/:id", assetCtrl.UpdateAsset)
	assets.DELETE("/:id", assetCtrl.DeleteAsset)
}

func runWorkOrderRouter(secureGroup *echo.Group, workOrderService services.WorkOrderServiceInterface, logger *zap.Logger) {
	workOrderCtrl := controllers.NewWorkOrderController(workOrderService, logger)

	workOrders := secureGroup.Group("/work-orders")
	workOrders.GET("", workOrderCtrl.GetWorkOrders)
	workOrders.POST("", workOrderCtrl.CreateWorkOrder)
	// /export регистрируется до /:id
	workOrders.GET("/export", workOrderCtrl.ExportWorkOrders)
	workOrders.GET("/:id", workOrderCtrl.FindWorkOrder)
	workOrders.PUT("/:id", workOrderCtrl.UpdateWorkOrder)
	workOrders.DELETE("/:id", workOrderCtrl.DeleteWorkOrder)
	workOrders.POST("/:id/transition", workOrderCtrl.TransitionWorkOrder)
	workOrders.GET("/:id/activity", workOrderCtrl.GetActivity)
	workOrders.POST("/:id/comments", workOrderCtrl.AddComment)
}

func runIncidentRouter(secureGroup *echo.Group, incidentService services.IncidentServiceInterface, logger *zap.Logger) {
	incidentCtrl := controllers.NewIncidentController(incidentService, logger)

	incidents := secureGroup.Group("/incidents")
	incidents.GET("", incidentCtrl.GetIncidents)
	incidents.POST("", incidentCtrl.CreateIncident)
	incidents.GET("/:id", incidentCtrl.FindIncident)
	incidents.PUT("/:id", incidentCtrl.UpdateIncident)
	incidents.DELETE("/:id", incidentCtrl.DeleteIncident)
	incidents.POST("/:id/transition", incidentCtrl.TransitionIncident)
	incidents.GET("/:id/activity", incidentCtrl.GetActivity)
	incidents.POST("/:id/comments", incidentCtrl.AddComment)
}

func runNavigationRouter(secureGroup *echo.Group, navigationService services.NavigationServiceInterface, logger *zap.Logger) {
	navigationCtrl := controllers.NewNavigationController(navigationService, logger)

	modals := secureGroup.Group("/navigation/modals")
	modals.GET("", navigationCtrl.GetModals)
	modals.POST("/open", navigationCtrl.OpenModal)
	modals.POST("/close", navigationCtrl.CloseModal)
}

func runWebSocketRouter(secureGroup *echo.Group, hub *websocket.Hub, allowedOrigins []string, logger *zap.Logger) {
	wsCtrl := controllers.NewWebSocketController(hub, allowedOrigins, logger)
	secureGroup.GET("/ws", wsCtrl.ServeWs)
}
