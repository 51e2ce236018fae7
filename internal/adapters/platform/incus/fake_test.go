package incus

import (
	"net/http"
	"sort"
	"sync"

	"github.com/lxc/incus/shared/api"
)

// fakeClient is an in-memory Incus that fails like the real server does.
type fakeClient struct {
	mu        sync.Mutex
	instances map[string]Instance
	volumes   map[string]Volume
	snapshots map[string]VolumeSnapshot
	images    map[string]Image
	launched  []LaunchRequest
	failNext  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		instances: map[string]Instance{},
		volumes:   map[string]Volume{},
		snapshots: map[string]VolumeSnapshot{},
		images:    map[string]Image{},
	}
}

func notFoundErr() error { return api.StatusErrorf(http.StatusNotFound, "not found") }

func (f *fakeClient) injected() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeClient) GetInstance(name string) (Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected(); err != nil {
		return Instance{}, err
	}
	inst, ok := f.instances[name]
	if !ok {
		return Instance{}, notFoundErr()
	}
	return inst, nil
}

func (f *fakeClient) ListInstances() ([]Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Instance, 0, len(f.instances))
	for _, inst := range f.instances {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeClient) LaunchInstance(req LaunchRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected(); err != nil {
		return err
	}
	if _, ok := f.instances[req.Name]; ok {
		return api.StatusErrorf(http.StatusConflict, "instance already exists")
	}
	f.launched = append(f.launched, req)
	f.instances[req.Name] = Instance{
		Name:         req.Name,
		Status:       "Running",
		ImageAlias:   req.ImageAlias,
		InstanceType: req.InstanceType,
		Config:       req.Config,
		Devices:      map[string]map[string]string{},
	}
	return nil
}

func (f *fakeClient) RestartInstance(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[name]
	if !ok {
		return notFoundErr()
	}
	inst.Status = "Restarting"
	f.instances[name] = inst
	return nil
}

func (f *fakeClient) DeleteInstance(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.instances[name]; !ok {
		return notFoundErr()
	}
	delete(f.instances, name)
	return nil
}

func (f *fakeClient) UpdateDevices(name string, fn func(devices map[string]map[string]string) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[name]
	if !ok {
		return notFoundErr()
	}
	if inst.Devices == nil {
		inst.Devices = map[string]map[string]string{}
	}
	if err := fn(inst.Devices); err != nil {
		return err
	}
	f.instances[name] = inst

	for volName, vol := range f.volumes {
		vol.UsedBy = nil
		for _, dev := range inst.Devices {
			if dev["type"] == "disk" && dev["source"] == volName {
				vol.UsedBy = []string{"/1.0/instances/" + name + "?project=default"}
			}
		}
		f.volumes[volName] = vol
	}
	return nil
}

func (f *fakeClient) GetVolume(pool, name string) (Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected(); err != nil {
		return Volume{}, err
	}
	vol, ok := f.volumes[name]
	if !ok || vol.Pool != pool {
		return Volume{}, notFoundErr()
	}
	return vol, nil
}

func (f *fakeClient) ListVolumes(pool string) ([]Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Volume
	for _, vol := range f.volumes {
		if vol.Pool == pool {
			out = append(out, vol)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeClient) CreateVolume(pool, name string, config map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.volumes[name]; ok {
		return api.StatusErrorf(http.StatusConflict, "volume exists")
	}
	f.volumes[name] = Volume{Name: name, Pool: pool, Config: config}
	return nil
}

func (f *fakeClient) CopyVolume(pool, name, source string, config map[string]string) error {
	f.mu.Lock()
	if _, ok := f.snapshots[source]; !ok {
		f.mu.Unlock()
		return notFoundErr()
	}
	f.mu.Unlock()
	return f.CreateVolume(pool, name, config)
}

func (f *fakeClient) DeleteVolume(pool, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	vol, ok := f.volumes[name]
	if !ok {
		return notFoundErr()
	}
	if len(vol.UsedBy) > 0 {
		return api.StatusErrorf(http.StatusBadRequest, "storage volume is still in use")
	}
	delete(f.volumes, name)
	return nil
}

func (f *fakeClient) GetVolumeSnapshot(pool, volume, name string) (VolumeSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[volume+"/"+name]
	if !ok {
		return VolumeSnapshot{}, notFoundErr()
	}
	return snap, nil
}

func (f *fakeClient) ListVolumeSnapshots(pool, volume string) ([]VolumeSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []VolumeSnapshot
	for _, snap := range f.snapshots {
		if snap.Volume == volume {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeClient) CreateVolumeSnapshot(pool, volume, name, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.volumes[volume]; !ok {
		return notFoundErr()
	}
	f.snapshots[volume+"/"+name] = VolumeSnapshot{Volume: volume, Name: name, Description: description}
	return nil
}

func (f *fakeClient) DeleteVolumeSnapshot(pool, volume, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.snapshots[volume+"/"+name]; !ok {
		return notFoundErr()
	}
	delete(f.snapshots, volume+"/"+name)
	return nil
}

func (f *fakeClient) GetImage(fingerprint string) (Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[fingerprint]
	if !ok {
		return Image{}, notFoundErr()
	}
	return img, nil
}

func (f *fakeClient) ListImages() ([]Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Image, 0, len(f.images))
	for _, img := range f.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out, nil
}

func (f *fakeClient) PublishInstance(instance, alias string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[instance]
	if !ok {
		return "", notFoundErr()
	}
	if inst.Status != "Stopped" {
		return "", api.StatusErrorf(http.StatusConflict, "instance must be stopped")
	}
	fp := "fp-" + instance
	f.images[fp] = Image{Fingerprint: fp, Aliases: []string{alias}}
	return fp, nil
}

func (f *fakeClient) DeleteImage(fingerprint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.images[fingerprint]; !ok {
		return notFoundErr()
	}
	delete(f.images, fingerprint)
	return nil
}
