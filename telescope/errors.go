package telescope

import "errors"

var (
	// ErrInvalidArgument reports a facade argument outside its allowed range.
	// No exchange was attempted.
	ErrInvalidArgument = errors.New("telescope: invalid argument")

	// ErrSlewRejected reports an MS command the handset refused, typically
	// because the target is below the horizon.
	ErrSlewRejected = errors.New("telescope: slew rejected")

	// ErrTargetRejected reports target coordinates the handset refused.
	ErrTargetRejected = errors.New("telescope: target rejected")

	// ErrSettingRejected reports a time or date the handset refused.
	ErrSettingRejected = errors.New("telescope: setting rejected")

	// ErrMotionLinkLost reports a link failure while the mount was in motion.
	ErrMotionLinkLost = errors.New("telescope: link lost while in motion")
)
