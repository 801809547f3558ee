package testutil

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// WasmModule returns a minimal WebAssembly binary carrying fullName in a
// "module.identity" custom section. An empty fullName yields a module
// with no identity section.
func WasmModule(fullName string) []byte {
	out := append([]byte(nil), wasmHeader...)
	if fullName == "" {
		return out
	}
	return append(out, customSection("module.identity", []byte(fullName))...)
}

// WasmModuleNamed is WasmModule with an additional name section declaring
// moduleName.
func WasmModuleNamed(fullName string, moduleName string) []byte {
	out := WasmModule(fullName)
	// name section, subsection 0 (module name)
	sub := append(uleb128(uint32(len(moduleName))), moduleName...)
	payload := append([]byte{0x00}, uleb128(uint32(len(sub)))...)
	payload = append(payload, sub...)
	return append(out, customSection("name", payload)...)
}

func customSection(name string, payload []byte) []byte {
	body := append(uleb128(uint32(len(name))), name...)
	body = append(body, payload...)
	section := []byte{0x00}
	section = append(section, uleb128(uint32(len(body)))...)
	return append(section, body...)
}

func uleb128(value uint32) []byte {
	var out []byte
	for {
		b := byte(value & 0x7f)
		value >>= 7
		if value != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}
