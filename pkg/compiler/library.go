package compiler

// librarySignature describes a host-provided function invoked by name via
// callname rather than by function id.
type librarySignature struct {
	Params []Type
	Return Type
}

var libraryFunctions = map[string]librarySignature{
	"getint":    {Return: TypeInt},
	"getdouble": {Return: TypeDouble},
	"getchar":   {Return: TypeInt},
	"putint":    {Params: []Type{TypeInt}, Return: TypeVoid},
	"putdouble": {Params: []Type{TypeDouble}, Return: TypeVoid},
	"putchar":   {Params: []Type{TypeInt}, Return: TypeVoid},
	"putstr":    {Params: []Type{TypeInt}, Return: TypeVoid},
	"putln":     {Return: TypeVoid},
}
