package ddl

import "fmt"

type TriggerAction string

const (
	CreateTrigger  TriggerAction = "create"
	DropTrigger    TriggerAction = "drop"
	EnableTrigger  TriggerAction = "enable"
	DisableTrigger TriggerAction = "disable"
)

type TriggerWhen string

const (
	Before TriggerWhen = "BEFORE"
	After  TriggerWhen = "AFTER"
)

type TriggerEvent string

const (
	OnInsert   TriggerEvent = "INSERT"
	OnUpdate   TriggerEvent = "UPDATE"
	OnDelete   TriggerEvent = "DELETE"
	OnTruncate TriggerEvent = "TRUNCATE"
)

type TriggerLevel string

const (
	ForEachRow       TriggerLevel = "FOR EACH ROW"
	ForEachStatement TriggerLevel = "FOR EACH STATEMENT"
)

// TriggerDefinition describes a trigger and, for [CreateTrigger], the
// function it runs. Engines without trigger functions inline Body into the
// trigger itself and ignore FunctionName.
type TriggerDefinition struct {
	Action       TriggerAction
	Name         string
	Table        string
	When         TriggerWhen
	Event        TriggerEvent
	Level        TriggerLevel
	FunctionName string
	Body         string
}

func NewTrigger(action TriggerAction, name, table string) *TriggerDefinition {
	return &TriggerDefinition{
		Action: action,
		Name:   name,
		Table:  table,
		When:   After,
		Level:  ForEachRow,
	}
}

// On sets the timing and event of the trigger.
func (t *TriggerDefinition) On(when TriggerWhen, event TriggerEvent) *TriggerDefinition {
	t.When = when
	t.Event = event
	return t
}

func (t *TriggerDefinition) ForEach(level TriggerLevel) *TriggerDefinition {
	t.Level = level
	return t
}

// Function sets the name and body of the function executed by the trigger.
func (t *TriggerDefinition) Function(name, body string) *TriggerDefinition {
	t.FunctionName = name
	t.Body = body
	return t
}

func (t *TriggerDefinition) Validate() error {
	if t.Name == "" || t.Table == "" {
		return fmt.Errorf("%w: trigger requires a name and a table", ErrInvalidDefinition)
	}
	switch t.Action {
	case CreateTrigger:
		if t.Event == "" {
			return fmt.Errorf("%w: trigger %s has no event", ErrInvalidDefinition, t.Name)
		}
		if t.Body == "" {
			return fmt.Errorf("%w: trigger %s has no body", ErrInvalidDefinition, t.Name)
		}
	case DropTrigger, EnableTrigger, DisableTrigger:
	default:
		return fmt.Errorf("%w: unknown trigger action %q", ErrInvalidDefinition, t.Action)
	}
	return nil
}
