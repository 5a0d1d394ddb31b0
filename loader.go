package eruption

import "github.com/eruption-linux/eruption-core/vm"

// BankLoader implements ScriptLoader against a *vm.Bank: LoadInto routes
// to the VM already running at index, spawning new VMs (via newScripter)
// up to that index if the bank doesn't have one yet. cmd/eruptiond uses
// this at startup to turn every script of the active profile into a
// running VM; the scheduler's LoadScript/SwitchProfile handling only ever
// targets index 0. Accessibility is verified by the caller before
// LoadInto is called (spec.md §7 ScriptAccessError).
type BankLoader struct {
	bank        *vm.Bank
	newScripter func() vm.Scripter
}

// NewBankLoader creates a BankLoader. newScripter is called once per VM
// the loader needs to spawn; it must return a fresh Scripter each time
// since a Scripter is owned exclusively by one VM (spec.md §3).
func NewBankLoader(bank *vm.Bank, newScripter func() vm.Scripter) *BankLoader {
	return &BankLoader{bank: bank, newScripter: newScripter}
}

// LoadInto sends a LoadScript command for scriptPath to the VM at index,
// spawning it first if the bank doesn't have that many VMs yet.
func (l *BankLoader) LoadInto(index int, scriptPath string) error {
	for l.bank.Len() <= index {
		l.bank.Spawn(l.newScripter())
	}
	v, _ := l.bank.At(index)
	return v.Send(vm.Command{Kind: vm.CmdLoadScript, ScriptPath: scriptPath})
}
