package monero

const (
	MinerRewardUnlockTime = 60

	RequiredMajor         = 3
	RequiredMinor         = 10
	RequiredMoneroVersion = (RequiredMajor << 16) | RequiredMinor
	RequiredMoneroString  = "v0.18.0.0"
)

const (
	HardForkMinimumSupportedVersion = 1
	HardForkSupportedVersion        = 16
)
