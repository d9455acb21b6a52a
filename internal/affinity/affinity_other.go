//go:build !linux

package affinity

func pinToCore(coreID int) (string, error) {
	return unsupported(coreID)
}
