package incus

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strings"

	incuscli "github.com/lxc/incus/client"
	"github.com/lxc/incus/shared/api"
)

const customVolumeType = "custom"

// RealClient wraps the official Incus Go client.
type RealClient struct {
	c incuscli.InstanceServer
}

// Connect opens the local UNIX socket, or the remote HTTPS endpoint when
// cfg.Remote is set, and scopes the client to cfg.Project.
func Connect(cfg Config) (*RealClient, error) {
	var (
		c   incuscli.InstanceServer
		err error
	)
	if cfg.Remote == "" {
		c, err = incuscli.ConnectIncusUnix(cfg.Socket, nil)
	} else {
		args := &incuscli.ConnectionArgs{InsecureSkipVerify: cfg.InsecureSkipVerify}
		if args.TLSClientCert, err = readOptional(cfg.ClientCert); err != nil {
			return nil, err
		}
		if args.TLSClientKey, err = readOptional(cfg.ClientKey); err != nil {
			return nil, err
		}
		if args.TLSServerCert, err = readOptional(cfg.ServerCert); err != nil {
			return nil, err
		}
		c, err = incuscli.ConnectIncus(cfg.Remote, args)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Project != "" {
		c = c.UseProject(cfg.Project)
	}
	return &RealClient{c: c}, nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

func (r *RealClient) GetInstance(name string) (Instance, error) {
	inst, _, err := r.c.GetInstance(name)
	if err != nil {
		return Instance{}, err
	}
	out := toInstance(*inst)
	if inst.StatusCode == api.Running {
		state, _, err := r.c.GetInstanceState(name)
		if err != nil {
			return Instance{}, err
		}
		out.Interfaces = toInterfaces(state.Network)
	}
	return out, nil
}

func (r *RealClient) ListInstances() ([]Instance, error) {
	insts, err := r.c.GetInstances(api.InstanceTypeAny)
	if err != nil {
		return nil, err
	}
	out := make([]Instance, 0, len(insts))
	for _, inst := range insts {
		out = append(out, toInstance(inst))
	}
	return out, nil
}

func toInstance(inst api.Instance) Instance {
	return Instance{
		Name:         inst.Name,
		Status:       inst.Status,
		Type:         inst.Type,
		Location:     inst.Location,
		ImageAlias:   inst.Config["user.image"],
		InstanceType: inst.Config["user.instance_type"],
		Config:       inst.Config,
		Devices:      inst.Devices,
		CreatedAt:    inst.CreatedAt,
	}
}

func toInterfaces(network map[string]api.InstanceStateNetwork) map[string]Interface {
	out := make(map[string]Interface, len(network))
	for name, n := range network {
		if n.Type == "loopback" {
			continue
		}
		iface := Interface{HWAddr: n.Hwaddr}
		for _, a := range n.Addresses {
			if a.Scope == "global" && net.ParseIP(a.Address) != nil {
				iface.Addresses = append(iface.Addresses, a.Address)
			}
		}
		out[name] = iface
	}
	return out
}

func (r *RealClient) LaunchInstance(req LaunchRequest) error {
	config := map[string]string{
		"user.image":         req.ImageAlias,
		"user.instance_type": req.InstanceType,
	}
	for k, v := range req.Config {
		config[k] = v
	}
	post := api.InstancesPost{
		Name:         req.Name,
		InstanceType: req.InstanceType,
		Start:        true,
		Source: api.InstanceSource{
			Type:  "image",
			Alias: req.ImageAlias,
		},
		InstancePut: api.InstancePut{Config: config},
	}
	if req.ImageServer != "" {
		post.Source.Server = req.ImageServer
		post.Source.Protocol = "simplestreams"
	}
	_, err := r.c.CreateInstance(post)
	return err
}

func (r *RealClient) RestartInstance(name string) error {
	_, err := r.c.UpdateInstanceState(name, api.InstanceStatePut{Action: "restart", Timeout: -1}, "")
	return err
}

func (r *RealClient) DeleteInstance(name string) error {
	inst, _, err := r.c.GetInstance(name)
	if err != nil {
		return err
	}
	if inst.StatusCode != api.Stopped {
		op, err := r.c.UpdateInstanceState(name, api.InstanceStatePut{Action: "stop", Force: true, Timeout: -1}, "")
		if err != nil {
			return err
		}
		if err := op.Wait(); err != nil {
			return err
		}
	}
	_, err = r.c.DeleteInstance(name)
	return err
}

func (r *RealClient) UpdateDevices(name string, fn func(devices map[string]map[string]string) error) error {
	inst, etag, err := r.c.GetInstance(name)
	if err != nil {
		return err
	}
	put := inst.Writable()
	if put.Devices == nil {
		put.Devices = map[string]map[string]string{}
	}
	if err := fn(put.Devices); err != nil {
		return err
	}
	op, err := r.c.UpdateInstance(name, put, etag)
	if err != nil {
		return err
	}
	return op.Wait()
}

func (r *RealClient) GetVolume(pool, name string) (Volume, error) {
	vol, _, err := r.c.GetStoragePoolVolume(pool, customVolumeType, name)
	if err != nil {
		return Volume{}, err
	}
	return toVolume(pool, *vol), nil
}

func (r *RealClient) ListVolumes(pool string) ([]Volume, error) {
	vols, err := r.c.GetStoragePoolVolumes(pool)
	if err != nil {
		return nil, err
	}
	out := make([]Volume, 0, len(vols))
	for _, v := range vols {
		if v.Type != customVolumeType || strings.Contains(v.Name, "/") {
			continue
		}
		out = append(out, toVolume(pool, v))
	}
	return out, nil
}

func toVolume(pool string, v api.StorageVolume) Volume {
	return Volume{
		Name:      v.Name,
		Pool:      pool,
		Config:    v.Config,
		UsedBy:    v.UsedBy,
		Location:  v.Location,
		CreatedAt: v.CreatedAt,
	}
}

func (r *RealClient) CreateVolume(pool, name string, config map[string]string) error {
	return r.c.CreateStoragePoolVolume(pool, api.StorageVolumesPost{
		Name:             name,
		Type:             customVolumeType,
		StorageVolumePut: api.StorageVolumePut{Config: config},
	})
}

func (r *RealClient) CopyVolume(pool, name, source string, config map[string]string) error {
	return r.c.CreateStoragePoolVolume(pool, api.StorageVolumesPost{
		Name:             name,
		Type:             customVolumeType,
		StorageVolumePut: api.StorageVolumePut{Config: config},
		Source:           api.StorageVolumeSource{Type: "copy", Name: source, Pool: pool},
	})
}

func (r *RealClient) DeleteVolume(pool, name string) error {
	return r.c.DeleteStoragePoolVolume(pool, customVolumeType, name)
}

func (r *RealClient) GetVolumeSnapshot(pool, volume, name string) (VolumeSnapshot, error) {
	snap, _, err := r.c.GetStoragePoolVolumeSnapshot(pool, customVolumeType, volume, name)
	if err != nil {
		return VolumeSnapshot{}, err
	}
	return toSnapshot(volume, *snap), nil
}

func (r *RealClient) ListVolumeSnapshots(pool, volume string) ([]VolumeSnapshot, error) {
	snaps, err := r.c.GetStoragePoolVolumeSnapshots(pool, customVolumeType, volume)
	if err != nil {
		return nil, err
	}
	out := make([]VolumeSnapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, toSnapshot(volume, s))
	}
	return out, nil
}

func toSnapshot(volume string, s api.StorageVolumeSnapshot) VolumeSnapshot {
	name := s.Name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return VolumeSnapshot{Volume: volume, Name: name, Description: s.Description, CreatedAt: s.CreatedAt}
}

func (r *RealClient) CreateVolumeSnapshot(pool, volume, name, description string) error {
	op, err := r.c.CreateStoragePoolVolumeSnapshot(pool, customVolumeType, volume, api.StorageVolumeSnapshotsPost{Name: name})
	if err != nil {
		return err
	}
	if err := op.Wait(); err != nil {
		return err
	}
	if description == "" {
		return nil
	}
	_, etag, err := r.c.GetStoragePoolVolumeSnapshot(pool, customVolumeType, volume, name)
	if err != nil {
		return err
	}
	return r.c.UpdateStoragePoolVolumeSnapshot(pool, customVolumeType, volume, name,
		api.StorageVolumeSnapshotPut{Description: description}, etag)
}

func (r *RealClient) DeleteVolumeSnapshot(pool, volume, name string) error {
	_, err := r.c.DeleteStoragePoolVolumeSnapshot(pool, customVolumeType, volume, name)
	return err
}

func (r *RealClient) GetImage(fingerprint string) (Image, error) {
	img, _, err := r.c.GetImage(fingerprint)
	if err != nil {
		return Image{}, err
	}
	return toImage(*img), nil
}

func (r *RealClient) ListImages() ([]Image, error) {
	imgs, err := r.c.GetImages()
	if err != nil {
		return nil, err
	}
	out := make([]Image, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, toImage(img))
	}
	return out, nil
}

func toImage(img api.Image) Image {
	aliases := make([]string, 0, len(img.Aliases))
	for _, a := range img.Aliases {
		aliases = append(aliases, a.Name)
	}
	sort.Strings(aliases)
	return Image{
		Fingerprint: img.Fingerprint,
		Aliases:     aliases,
		Description: img.Properties["description"],
		Size:        img.Size,
	}
}

func (r *RealClient) PublishInstance(instance, alias string) (string, error) {
	op, err := r.c.CreateImage(api.ImagesPost{
		Source:  &api.ImagesPostSource{Type: "instance", Name: instance},
		Aliases: []api.ImageAlias{{Name: alias}},
	}, nil)
	if err != nil {
		return "", err
	}
	if err := op.Wait(); err != nil {
		return "", err
	}
	fp, _ := op.Get().Metadata["fingerprint"].(string)
	if fp == "" {
		return "", fmt.Errorf("publish of %s returned no fingerprint", instance)
	}
	return fp, nil
}

func (r *RealClient) DeleteImage(fingerprint string) error {
	_, err := r.c.DeleteImage(fingerprint)
	return err
}
