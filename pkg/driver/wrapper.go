package driver

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/prop"
)

// wrapAdapter gives an adapter an identity and lifecycle enforcement.
func wrapAdapter(a Adapter, info Info) Driver {
	return &adapterWrapper{
		Adapter: a,
		id:      uuid.NewString(),
		info:    info,
		state:   StateClosed,
	}
}

type adapterWrapper struct {
	Adapter
	id    string
	info  Info
	state State
}

func (w *adapterWrapper) ID() string {
	return w.id
}

func (w *adapterWrapper) Info() Info {
	return w.info
}

func (w *adapterWrapper) Status() State {
	return w.state
}

func (w *adapterWrapper) Open() error {
	if w.state != StateClosed {
		return fmt.Errorf("invalid state: driver is already opened")
	}

	err := w.Adapter.Open()
	if err == nil {
		w.state = StateOpened
	}
	return err
}

func (w *adapterWrapper) Close() error {
	err := w.Adapter.Close()
	if err == nil {
		w.state = StateClosed
	}
	return err
}

func (w *adapterWrapper) VideoRecord(p prop.Media) (Reader, error) {
	if w.state == StateClosed {
		return nil, fmt.Errorf("invalid state: driver hasn't been opened")
	}
	if w.state == StateRunning {
		return nil, fmt.Errorf("invalid state: driver is already running")
	}

	r, err := w.Adapter.VideoRecord(p)
	if err == nil {
		w.state = StateRunning
	}
	return r, err
}

func (w *adapterWrapper) Stop() error {
	if w.state != StateRunning {
		return fmt.Errorf("invalid state: driver hasn't been started")
	}

	err := w.Adapter.Stop()
	if err == nil {
		w.state = StateOpened
	}
	return err
}

func (w *adapterWrapper) Properties() []prop.Media {
	if w.state == StateClosed {
		return nil
	}
	return w.Adapter.Properties()
}
