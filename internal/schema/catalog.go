package schema

// Master data entity kinds.
const (
	Facility        = "facility"
	CostCenter      = "cost_center"
	Department      = "department"
	JobRole         = "job_role"
	Employee        = "employee"
	BusinessPartner = "business_partner"
	Specification   = "specification"
	Material        = "material"
	BillOfMaterials = "bill_of_materials"
)

// Operations entity kinds.
const (
	WorkCenter        = "work_center"
	Equipment         = "equipment"
	ProductionOrder   = "production_order"
	QualityInspection = "quality_inspection"
	MaintenanceOrder  = "maintenance_order"
	PurchaseOrder     = "purchase_order"
	PurchaseOrderLine = "purchase_order_line"
	Shipment          = "shipment"
)

// Document collections.
const (
	GeographicLocation = "geographic_locations"
	IoTSensor          = "iot_sensors"
	SensorReading      = "sensor_readings"
	EquipmentAlert     = "equipment_alerts"
	ShipmentTracking   = "shipment_tracking"
)

const (
	TagVendor  = "vendor"
	TagManager = "manager"
)

func serial(name string) Column { return Column{Name: name, Type: Serial} }

func text(name string, size int) Column { return Column{Name: name, Type: Text, Size: size} }

func col(name string, t Type) Column { return Column{Name: name, Type: t} }

func ref(name, entity string) Column {
	return Column{Name: name, Type: BigInt, Ref: &Ref{Entity: entity}}
}

func pooledRef(name, entity, pool string) Column {
	return Column{Name: name, Type: BigInt, Ref: &Ref{Entity: entity, Pool: pool}}
}

func textRef(name, entity string, size int) Column {
	return Column{Name: name, Type: Text, Size: size, Ref: &Ref{Entity: entity}}
}

func deferred(name, entity string) Column {
	return Column{Name: name, Type: BigInt, Nullable: true, Ref: &Ref{Entity: entity, Deferred: true}}
}

func null(c Column) Column {
	c.Nullable = true
	return c
}

func masterEntities() []*Entity {
	return []*Entity{
		{
			Name: Facility, Store: Master, ID: Surrogate, IDColumn: "facility_id",
			Columns: []Column{
				serial("facility_id"),
				text("facility_code", 16),
				text("name", 120),
				text("city", 80),
				text("country_code", 2),
				col("latitude", Float),
				col("longitude", Float),
				col("opened_on", Date),
				deferred("facility_manager_id", Employee),
			},
			Unique:      [][]string{{"facility_code"}},
			Coordinates: [][2]string{{"latitude", "longitude"}},
			Capture:     []string{"latitude", "longitude"},
		},
		{
			Name: CostCenter, Store: Master, ID: Surrogate, IDColumn: "cost_center_id",
			Columns: []Column{
				serial("cost_center_id"),
				text("cost_center_code", 16),
				text("name", 120),
				ref("facility_id", Facility),
				col("budget_amount", Decimal),
				deferred("department_id", Department),
				deferred("cost_center_manager_id", Employee),
			},
			Unique:  [][]string{{"cost_center_code"}},
			Capture: []string{"facility_id"},
		},
		{
			Name: Department, Store: Master, ID: Surrogate, IDColumn: "department_id",
			Columns: []Column{
				serial("department_id"),
				text("department_code", 16),
				text("name", 120),
				ref("facility_id", Facility),
				null(ref("parent_department_id", Department)),
				ref("default_cost_center_id", CostCenter),
				deferred("department_head_id", Employee),
				col("headcount", Integer),
			},
			Unique:  [][]string{{"department_code"}},
			Capture: []string{"facility_id", "default_cost_center_id"},
		},
		{
			Name: JobRole, Store: Master, ID: Surrogate, IDColumn: "role_id",
			Columns: []Column{
				serial("role_id"),
				text("role_code", 16),
				text("title", 80),
				col("pay_grade", Integer),
			},
			Unique: [][]string{{"role_code"}},
			Tags:   []TagRule{{Name: TagManager, Column: "title", Value: "Manager", Contains: true}},
		},
		{
			Name: Employee, Store: Master, ID: Surrogate, IDColumn: "employee_id",
			Columns: []Column{
				serial("employee_id"),
				text("employee_number", 16),
				text("first_name", 60),
				text("last_name", 60),
				text("email", 160),
				ref("facility_id", Facility),
				ref("department_id", Department),
				ref("role_id", JobRole),
				ref("default_cost_center_id", CostCenter),
				null(ref("supervisor_id", Employee)),
				col("hire_date", Date),
				null(col("termination_date", Date)),
			},
			Unique:   [][]string{{"employee_number"}, {"email"}},
			Temporal: [][2]string{{"hire_date", "termination_date"}},
		},
		{
			Name: BusinessPartner, Store: Master, ID: Surrogate, IDColumn: "partner_id",
			Columns: []Column{
				serial("partner_id"),
				text("partner_code", 16),
				text("name", 160),
				text("partner_type", 16),
				text("country_code", 2),
				text("credit_rating", 4),
				col("latitude", Float),
				col("longitude", Float),
			},
			Unique:      [][]string{{"partner_code"}},
			Coordinates: [][2]string{{"latitude", "longitude"}},
			Tags:        []TagRule{{Name: TagVendor, Column: "partner_type", Value: "Vendor"}},
		},
		{
			Name: Specification, Store: Master, ID: Surrogate, IDColumn: "specification_id",
			Columns: []Column{
				serial("specification_id"),
				text("spec_code", 16),
				text("revision", 4),
				text("title", 160),
				col("tolerance_pct", Decimal),
				col("valid_from", Date),
				col("valid_to", Date),
			},
			Unique:   [][]string{{"spec_code", "revision"}},
			Temporal: [][2]string{{"valid_from", "valid_to"}},
		},
		{
			Name: Material, Store: Master, ID: Surrogate, IDColumn: "material_id",
			Columns: []Column{
				serial("material_id"),
				text("material_code", 16),
				text("description", 200),
				text("material_type", 24),
				text("unit_of_measure", 8),
				ref("specification_id", Specification),
				pooledRef("primary_supplier_id", BusinessPartner, TagVendor),
				col("standard_cost", Decimal),
			},
			Unique: [][]string{{"material_code"}},
		},
		{
			Name: BillOfMaterials, Store: Master, ID: Surrogate, IDColumn: "bom_id",
			Columns: []Column{
				serial("bom_id"),
				ref("parent_material_id", Material),
				ref("component_material_id", Material),
				col("effective_date", Date),
				col("quantity", Decimal),
			},
			Unique: [][]string{{"parent_material_id", "component_material_id", "effective_date"}},
		},
	}
}

func operationsEntities() []*Entity {
	return []*Entity{
		{
			Name: WorkCenter, Store: Operations, ID: Surrogate, IDColumn: "work_center_id",
			Columns: []Column{
				serial("work_center_id"),
				text("work_center_code", 16),
				text("name", 120),
				ref("facility_id", Facility),
				ref("cost_center_id", CostCenter),
				col("capacity_per_hour", Integer),
			},
			Unique:  [][]string{{"work_center_code"}},
			Capture: []string{"facility_id"},
		},
		{
			Name: Equipment, Store: Operations, ID: Surrogate, IDColumn: "equipment_id",
			Columns: []Column{
				serial("equipment_id"),
				text("asset_tag", 20),
				ref("work_center_id", WorkCenter),
				null(ref("parent_equipment_id", Equipment)),
				ref("facility_id", Facility),
				pooledRef("manufacturer_id", BusinessPartner, TagVendor),
				text("model", 80),
				text("status", 16),
				col("installed_on", Date),
				col("last_serviced_on", Date),
			},
			Unique:   [][]string{{"asset_tag"}},
			Temporal: [][2]string{{"installed_on", "last_serviced_on"}},
			Capture:  []string{"facility_id"},
		},
		{
			Name: ProductionOrder, Store: Operations, ID: Surrogate, IDColumn: "production_order_id",
			Columns: []Column{
				serial("production_order_id"),
				text("order_number", 20),
				ref("work_center_id", WorkCenter),
				ref("material_id", Material),
				ref("created_by", Employee),
				col("quantity", Integer),
				text("status", 16),
				col("planned_start", Timestamp),
				col("planned_end", Timestamp),
			},
			Unique:   [][]string{{"order_number"}},
			Temporal: [][2]string{{"planned_start", "planned_end"}},
		},
		{
			Name: QualityInspection, Store: Operations, ID: Surrogate, IDColumn: "inspection_id",
			Columns: []Column{
				serial("inspection_id"),
				ref("production_order_id", ProductionOrder),
				ref("inspector_id", Employee),
				ref("specification_id", Specification),
				text("result", 12),
				col("measured_value", Float),
				col("inspected_at", Timestamp),
			},
			Unique: [][]string{{"production_order_id", "inspected_at"}},
		},
		{
			Name: MaintenanceOrder, Store: Operations, ID: Surrogate, IDColumn: "maintenance_order_id",
			Columns: []Column{
				serial("maintenance_order_id"),
				text("work_order_number", 20),
				ref("equipment_id", Equipment),
				null(ref("assigned_to", Employee)),
				text("priority", 12),
				col("opened_at", Timestamp),
				null(col("closed_at", Timestamp)),
			},
			Unique:   [][]string{{"work_order_number"}},
			Temporal: [][2]string{{"opened_at", "closed_at"}},
		},
		{
			Name: PurchaseOrder, Store: Operations, ID: Surrogate, IDColumn: "purchase_order_id",
			Columns: []Column{
				serial("purchase_order_id"),
				text("po_number", 20),
				pooledRef("supplier_id", BusinessPartner, TagVendor),
				ref("facility_id", Facility),
				col("order_date", Date),
				col("expected_date", Date),
				text("status", 16),
				col("total_amount", Decimal),
			},
			Unique:   [][]string{{"po_number"}},
			Temporal: [][2]string{{"order_date", "expected_date"}},
			Capture:  []string{"facility_id"},
		},
		{
			Name: PurchaseOrderLine, Store: Operations, ID: Surrogate, IDColumn: "po_line_id",
			Columns: []Column{
				serial("po_line_id"),
				ref("purchase_order_id", PurchaseOrder),
				col("line_number", Integer),
				ref("material_id", Material),
				col("quantity", Integer),
				col("unit_price", Decimal),
			},
			Unique: [][]string{{"purchase_order_id", "line_number"}},
		},
		{
			Name: Shipment, Store: Operations, ID: Surrogate, IDColumn: "shipment_id",
			Columns: []Column{
				serial("shipment_id"),
				text("tracking_number", 24),
				ref("purchase_order_id", PurchaseOrder),
				ref("destination_facility_id", Facility),
				text("carrier", 40),
				col("shipped_at", Timestamp),
				null(col("delivered_at", Timestamp)),
				col("origin_latitude", Float),
				col("origin_longitude", Float),
			},
			Unique:      [][]string{{"tracking_number"}},
			Temporal:    [][2]string{{"shipped_at", "delivered_at"}},
			Coordinates: [][2]string{{"origin_latitude", "origin_longitude"}},
			Capture:     []string{"tracking_number", "origin_latitude", "origin_longitude"},
		},
	}
}

func documentEntities() []*Entity {
	return []*Entity{
		{
			Name: GeographicLocation, Store: Documents, ID: Code, IDColumn: "location_code",
			Columns: []Column{
				col("_id", ObjectID),
				text("location_code", 16),
				ref("facility_id", Facility),
				text("name", 120),
				col("latitude", Float),
				col("longitude", Float),
				col("location", Point),
				col("elevation_m", Float),
				col("created_at", Timestamp),
			},
			Unique:      [][]string{{"location_code"}},
			Coordinates: [][2]string{{"latitude", "longitude"}},
			Indexes:     [][]string{{"facility_id"}},
			Capture:     []string{"facility_id", "latitude", "longitude"},
		},
		{
			Name: IoTSensor, Store: Documents, ID: Token, IDColumn: "sensor_id",
			Columns: []Column{
				col("_id", ObjectID),
				text("sensor_id", 36),
				ref("equipment_id", Equipment),
				ref("facility_id", Facility),
				textRef("location_code", GeographicLocation, 16),
				text("sensor_type", 24),
				text("unit", 12),
				col("location", Point),
				col("installed_at", Timestamp),
			},
			Unique:  [][]string{{"sensor_id"}},
			Indexes: [][]string{{"equipment_id"}, {"location_code"}},
			Capture: []string{"equipment_id", "unit"},
		},
		{
			Name: SensorReading, Store: Documents, ID: Token, IDColumn: "reading_id",
			Columns: []Column{
				col("_id", ObjectID),
				text("reading_id", 36),
				textRef("sensor_id", IoTSensor, 36),
				ref("equipment_id", Equipment),
				col("recorded_at", Timestamp),
				col("value", Float),
				text("unit", 12),
				text("quality", 8),
			},
			Unique:  [][]string{{"reading_id"}},
			Indexes: [][]string{{"sensor_id", "recorded_at"}},
		},
		{
			Name: EquipmentAlert, Store: Documents, ID: Token, IDColumn: "alert_id",
			Columns: []Column{
				col("_id", ObjectID),
				text("alert_id", 36),
				textRef("sensor_id", IoTSensor, 36),
				ref("equipment_id", Equipment),
				text("severity", 12),
				text("message", 200),
				col("raised_at", Timestamp),
				null(col("acknowledged_at", Timestamp)),
				null(ref("acknowledged_by", Employee)),
			},
			Unique:   [][]string{{"alert_id"}},
			Temporal: [][2]string{{"raised_at", "acknowledged_at"}},
			Indexes:  [][]string{{"equipment_id", "raised_at"}},
		},
		{
			Name: ShipmentTracking, Store: Documents, ID: Token, IDColumn: "event_id",
			Columns: []Column{
				col("_id", ObjectID),
				text("event_id", 36),
				ref("shipment_id", Shipment),
				text("tracking_number", 24),
				text("status", 24),
				col("recorded_at", Timestamp),
				col("position", Point),
			},
			Unique:  [][]string{{"event_id"}},
			Indexes: [][]string{{"tracking_number", "recorded_at"}},
		},
	}
}

// Default returns the manufacturing catalog used by every command.
func Default() *Catalog {
	var all []*Entity
	all = append(all, masterEntities()...)
	all = append(all, operationsEntities()...)
	all = append(all, documentEntities()...)
	c, err := NewCatalog(all...)
	if err != nil {
		panic(err)
	}
	return c
}
