package enum

// ── Group A: State machines ──

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

// ── Group B: Menu modes (configurable labels, no DB constraint) ──

const (
	ModeDefault   = ""
	ModeShavedIce = "shaved-ice"
	ModeToast     = "toast"
	ModeTwister   = "twister"
	ModeCombo     = "combo"
	ModeJuice     = "juice"
	ModeSmoothie  = "smoothie"
	ModeFries     = "fries"
	ModeSoda      = "soda"
	ModeTopping   = "topping"
	ModeCake      = "cake"
	ModeSpaghetti = "spaghetti"
)

const (
	FamilySauce       = "sauce"
	FamilyFlavor      = "flavor"
	FamilyTopping     = "topping"
	FamilyCheese      = "cheese"
	FamilyExtra       = "extra"
	FamilyDescription = "description"
)

// ── Group C: Persistence ──

const (
	CollectionMenu   = "menu"
	CollectionOrders = "orders"
)

// Device storage keys.
const (
	StorageKeyCart        = "cart"
	StorageKeyTableNumber = "tableNumber"
	StorageKeyCustomerKey = "customerKey"
)

const (
	CartPolicyUnique = "unique"
	CartPolicyAppend = "append"
	CartPolicyMerge  = "merge"
)

const (
	SalesFilterAll           = "all"
	SalesFilterServed        = "served"
	SalesFilterPaid          = "paid"
	SalesFilterServedAndPaid = "served_and_paid"
)

const (
	RoleAdmin = "ADMIN"
)

// NoTableLabel is shown for orders placed without a table number.
const NoTableLabel = "No table"

// ── Group D: Live feed events ──

const (
	EventMenuSnapshot   = "menu.snapshot"
	EventOrdersSnapshot = "orders.snapshot"
)
