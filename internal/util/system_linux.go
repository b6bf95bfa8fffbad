package util

func physicalCores() int {
	return countSysfsCores("/sys/devices/system/cpu")
}
