package runpod

const podFields = `
fragment PodFields on Pod {
  id
  name
  imageName
  desiredStatus
  gpuCount
  vcpuCount
  memoryInGb
  containerDiskInGb
  volumeInGb
  volumeMountPath
  costPerHr
  ports
  dockerArgs
  env
  machineId
  lastStatusChange
  uptimeSeconds
  machine {
    gpuDisplayName
    podHostId
  }
  runtime {
    uptimeInSeconds
    ports {
      ip
      isIpPublic
      privatePort
      publicPort
      type
    }
  }
}`

const gpuTypeFields = `
fragment GpuTypeFields on GpuType {
  id
  displayName
  memoryInGb
  secureCloud
  communityCloud
  lowestPrice(input: {gpuCount: 1}) {
    minimumBidPrice
    uninterruptablePrice
  }
}`

const queryGPUTypes = `query GpuTypes {
  gpuTypes {
    ...GpuTypeFields
  }
}` + gpuTypeFields

const queryGPUType = `query GpuType($input: GpuTypeFilter) {
  gpuTypes(input: $input) {
    ...GpuTypeFields
  }
}` + gpuTypeFields

const queryPods = `query Pods {
  myself {
    pods {
      ...PodFields
    }
  }
}` + podFields

const queryPod = `query Pod($input: PodFilter) {
  pod(input: $input) {
    ...PodFields
  }
}` + podFields

const mutationCreatePod = `mutation CreatePod($input: PodFindAndDeployOnDemandInput) {
  podFindAndDeployOnDemand(input: $input) {
    ...PodFields
  }
}` + podFields

const mutationStopPod = `mutation StopPod($input: PodStopInput!) {
  podStop(input: $input) {
    ...PodFields
  }
}` + podFields

const mutationStartPod = `mutation StartPod($input: PodResumeInput!) {
  podResume(input: $input) {
    ...PodFields
  }
}` + podFields

const mutationTerminatePod = `mutation TerminatePod($input: PodTerminateInput!) {
  podTerminate(input: $input)
}`
