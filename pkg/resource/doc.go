// Package resource implements the scheduler's typed resource value model:
// parsing, comparison, arithmetic and encoding of the six PBS resource
// value kinds (long, size, string, string array, boolean, float), and the
// resource definition registry that every comparison goes through.
//
// A resource definition is never looked up by name during a scheduling
// cycle; every entity holds a *Def pointer resolved once at snapshot load
// time, matching the process-wide resource_def table described in the
// scheduler design notes.
//
// Example:
//
//	reg := resource.NewRegistry()
//	def := reg.MustRegister("ncpus", resource.KindLong, resource.FlagConsumable)
//	a, _ := resource.Parse(def, "4")
//	b, _ := resource.Parse(def, "2")
//	sum, _ := resource.Add(def, a, b)
//	fmt.Println(resource.Encode(sum)) // "6"
package resource
