package world

// Role tags how an NPC behaves on its floor.
type Role uint8

const (
	RoleWanderer     Role = iota
	RoleVendor            // Runs the cafeteria shop
	RoleReceptionist      // Fixed at the lobby desk
	RoleTaskBearer        // Reported while a ticket is attached
)

func (r Role) String() string {
	switch r {
	case RoleWanderer:
		return "wanderer"
	case RoleVendor:
		return "vendor"
	case RoleReceptionist:
		return "receptionist"
	case RoleTaskBearer:
		return "task_bearer"
	default:
		return "unknown"
	}
}

// Appearance indexes into the presentation layer's palettes.
type Appearance struct {
	Skin  uint8 `json:"skin"`
	Hair  uint8 `json:"hair"`
	Shirt uint8 `json:"shirt"`
}

// NPC is a non-player character living on one floor.
type NPC struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"` // Base role; see CurrentRole
	Pos        Point      `json:"pos"`
	Render     Vec        `json:"render"`
	Appearance Appearance `json:"appearance"`
	MoveTimer  int        `json:"move_timer"`
	Task       *Task      `json:"task,omitempty"`
}

// CurrentRole reports RoleTaskBearer while a task is attached.
func (n *NPC) CurrentRole() Role {
	if n.Task != nil {
		return RoleTaskBearer
	}
	return n.Role
}

// Stationary reports whether the NPC holds its cell instead of wandering.
func (n *NPC) Stationary() bool {
	return n.CurrentRole() != RoleWanderer
}

// Attach binds t to the NPC. It fails if a task is already attached.
func (n *NPC) Attach(t *Task) bool {
	if n.Task != nil || t == nil {
		return false
	}
	n.Task = t
	return true
}

// Detach removes and returns the attached task.
func (n *NPC) Detach() *Task {
	t := n.Task
	n.Task = nil
	return t
}

// TaskKind distinguishes interview questions from support tickets.
type TaskKind uint8

const (
	TaskInterview TaskKind = iota
	TaskTicket
)

func (k TaskKind) String() string {
	if k == TaskInterview {
		return "interview"
	}
	return "ticket"
}

// Task is a challenge answered by free text and judged remotely.
type Task struct {
	Kind       TaskKind `json:"kind"`
	Department string   `json:"department,omitempty"`
	Role       string   `json:"role,omitempty"` // Who is asking, e.g. "Payroll clerk"
	Text       string   `json:"text,omitempty"` // Complaint or question
	Attempts   int      `json:"attempts"`
}

// NewTicket returns an unloaded ticket descriptor for a department.
func NewTicket(department string, attempts int) *Task {
	return &Task{Kind: TaskTicket, Department: department, Attempts: attempts}
}

// Loaded reports whether the complaint payload has been fetched.
func (t *Task) Loaded() bool {
	return t.Text != ""
}
